package vm

import "fmt"

// Verify checks the structural invariants of a chunk: every opcode is known,
// no operand runs past the end, constant operands index the pool, global
// names are strings and every jump lands on an instruction boundary or the
// end of code.
func Verify(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: nil chunk", ErrInvalidBytecode)
	}

	boundaries := make(map[int]bool)
	var jumps [][2]int // {offset, target}

	code := chunk.Code
	for offset := 0; offset < len(code); {
		boundaries[offset] = true
		op := Opcode(code[offset])
		width := OperandWidth(op)
		if width < 0 {
			return fmt.Errorf("%w: unknown opcode %d at %d", ErrInvalidBytecode, op, offset)
		}
		if offset+width >= len(code) && width > 0 {
			return fmt.Errorf("%w: truncated %s at %d", ErrInvalidBytecode, op, offset)
		}

		switch op {
		case OP_CONSTANT, OP_DEFINE_GLOBAL, OP_SET_GLOBAL, OP_GET_GLOBAL:
			idx := int(code[offset+1])<<8 | int(code[offset+2])
			if idx >= len(chunk.Constants) {
				return fmt.Errorf("%w: %s at %d uses constant %d of %d", ErrInvalidBytecode, op, offset, idx, len(chunk.Constants))
			}
			if op != OP_CONSTANT && !chunk.Constants[idx].IsString() {
				return fmt.Errorf("%w: %s at %d names a %s constant", ErrInvalidBytecode, op, offset, chunk.Constants[idx].Type)
			}
		case OP_JUMP, OP_JUMP_IF_FALSE:
			jump := int(int16(uint16(code[offset+1])<<8 | uint16(code[offset+2])))
			jumps = append(jumps, [2]int{offset, offset + 3 + jump})
		}

		offset += 1 + width
	}

	for _, j := range jumps {
		if j[1] != len(code) && !boundaries[j[1]] {
			return fmt.Errorf("%w: jump at %d lands on %d, not an instruction", ErrInvalidBytecode, j[0], j[1])
		}
	}

	for i, c := range chunk.Constants {
		if !c.IsFunction() {
			continue
		}
		fn := c.AsFunction()
		if fn.Chunk != nil && fn.Chunk != chunk {
			continue
		}
		if !boundaries[fn.Entry] {
			return fmt.Errorf("%w: function %s (constant %d) enters at %d, not an instruction", ErrInvalidBytecode, fn.Name, i, fn.Entry)
		}
	}
	return nil
}
