package vm

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable representation of the bytecode
func Disassemble(chunk *Chunk, name string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("== %s ==\n", name))

	offset := 0
	for offset < len(chunk.Code) {
		offset = disassembleInstruction(&sb, chunk, offset)
	}

	return sb.String()
}

// disassembleInstruction writes one instruction and returns the next offset
func disassembleInstruction(sb *strings.Builder, chunk *Chunk, offset int) int {
	sb.WriteString(fmt.Sprintf("%04d ", offset))

	// Print line number
	if offset > 0 && chunk.LineAt(offset) == chunk.LineAt(offset-1) {
		sb.WriteString("   | ")
	} else {
		sb.WriteString(fmt.Sprintf("%4d ", chunk.LineAt(offset)))
	}

	op := Opcode(chunk.Code[offset])
	width := OperandWidth(op)
	if width < 0 {
		sb.WriteString(fmt.Sprintf("UNKNOWN %d\n", op))
		return offset + 1
	}
	if offset+width >= len(chunk.Code) && width > 0 {
		sb.WriteString(fmt.Sprintf("%-16s (truncated)\n", op))
		return len(chunk.Code)
	}

	switch op {
	case OP_CONSTANT, OP_DEFINE_GLOBAL, OP_SET_GLOBAL, OP_GET_GLOBAL:
		return constantInstruction(sb, op.String(), chunk, offset)
	case OP_JUMP, OP_JUMP_IF_FALSE:
		return jumpInstruction(sb, op.String(), chunk, offset)
	case OP_GET_LOCAL, OP_SET_LOCAL, OP_BUILD_LIST, OP_CALL, OP_SPAWN:
		return byteInstruction(sb, op.String(), chunk, offset)
	default:
		return simpleInstruction(sb, op.String(), offset)
	}
}

func simpleInstruction(sb *strings.Builder, name string, offset int) int {
	sb.WriteString(fmt.Sprintf("%s\n", name))
	return offset + 1
}

func constantInstruction(sb *strings.Builder, name string, chunk *Chunk, offset int) int {
	idx := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])

	if idx < len(chunk.Constants) {
		sb.WriteString(fmt.Sprintf("%-16s %4d '%s'\n", name, idx, chunk.Constants[idx]))
	} else {
		sb.WriteString(fmt.Sprintf("%-16s %4d (invalid)\n", name, idx))
	}

	return offset + 3
}

func byteInstruction(sb *strings.Builder, name string, chunk *Chunk, offset int) int {
	slot := chunk.Code[offset+1]
	sb.WriteString(fmt.Sprintf("%-16s %4d\n", name, slot))
	return offset + 2
}

func jumpInstruction(sb *strings.Builder, name string, chunk *Chunk, offset int) int {
	jump := int(int16(uint16(chunk.Code[offset+1])<<8 | uint16(chunk.Code[offset+2])))
	target := offset + 3 + jump
	sb.WriteString(fmt.Sprintf("%-16s %4d -> %d\n", name, jump, target))
	return offset + 3
}
