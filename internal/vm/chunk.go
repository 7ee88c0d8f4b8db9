package vm

// Chunk represents a sequence of bytecode instructions
type Chunk struct {
	// Code is the bytecode instructions
	Code []byte

	// Constants pool - literals, global names, functions.
	// Append-only: indices stay stable once handed out.
	Constants []Value

	// Lines maps bytecode offset to source line number (for errors)
	Lines []int

	// File is the source file name
	File string
}

// NewChunk creates a new empty chunk
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 256),
		Constants: make([]Value, 0, 64),
		Lines:     make([]int, 0, 256),
	}
}

// Write adds a byte to the chunk with line info
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// WriteOp writes an opcode to the chunk
func (c *Chunk) WriteOp(op Opcode, line int) {
	c.Write(byte(op), line)
}

// AddConstant adds a constant to the pool and returns its index
func (c *Chunk) AddConstant(value Value) int {
	c.Constants = append(c.Constants, value)
	return len(c.Constants) - 1
}

// Len returns the current code length
func (c *Chunk) Len() int {
	return len(c.Code)
}

// LineAt returns the source line for the instruction at offset.
func (c *Chunk) LineAt(offset int) int {
	if offset >= 0 && offset < len(c.Lines) {
		return c.Lines[offset]
	}
	if n := len(c.Lines); n > 0 {
		return c.Lines[n-1]
	}
	return 0
}
