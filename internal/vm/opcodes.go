// Package vm implements the bytecode compiler and stack virtual machine for jihll
package vm

// Opcode represents a single VM instruction
type Opcode byte

const (
	// Stack manipulation
	OP_CONSTANT Opcode = iota // Push constant from pool (u16 index)
	OP_PRINT                  // Pop and write canonical form + newline
	OP_POP                    // Discard top of stack

	// Variables
	OP_DEFINE_GLOBAL // Pop value into global (u16 name index)
	OP_SET_GLOBAL    // Store top of stack into existing or new global, keep value
	OP_GET_GLOBAL    // Push global by name
	OP_GET_LOCAL     // Push frame slot (u8)
	OP_SET_LOCAL     // Store top of stack into frame slot (u8), keep value

	// Arithmetic
	OP_ADD      // + (string concat if either side is a string)
	OP_SUBTRACT // -
	OP_MULTIPLY // *
	OP_DIVIDE   // /

	// Comparison
	OP_LESS    // <
	OP_GREATER // >
	OP_EQUAL   // ==

	// Control flow (i16 offset from the byte after the operand)
	OP_JUMP_IF_FALSE // Pop, jump if falsey
	OP_JUMP          // Unconditional jump, forward or backward

	// Lists
	OP_BUILD_LIST // Pop N elements, push list (u8 count)

	// Functions
	OP_CALL   // Call callee below N args (u8 argc)
	OP_SPAWN  // Start callee with N args on a new task (u8 argc)
	OP_RETURN // Return from function, halt when no frames remain
)

// OpcodeNames maps opcodes to their string names for debugging
var OpcodeNames = map[Opcode]string{
	OP_CONSTANT:      "CONSTANT",
	OP_PRINT:         "PRINT",
	OP_POP:           "POP",
	OP_DEFINE_GLOBAL: "DEFINE_GLOBAL",
	OP_SET_GLOBAL:    "SET_GLOBAL",
	OP_GET_GLOBAL:    "GET_GLOBAL",
	OP_GET_LOCAL:     "GET_LOCAL",
	OP_SET_LOCAL:     "SET_LOCAL",
	OP_ADD:           "ADD",
	OP_SUBTRACT:      "SUBTRACT",
	OP_MULTIPLY:      "MULTIPLY",
	OP_DIVIDE:        "DIVIDE",
	OP_LESS:          "LESS",
	OP_GREATER:       "GREATER",
	OP_EQUAL:         "EQUAL",
	OP_JUMP_IF_FALSE: "JUMP_IF_FALSE",
	OP_JUMP:          "JUMP",
	OP_BUILD_LIST:    "BUILD_LIST",
	OP_CALL:          "CALL",
	OP_SPAWN:         "SPAWN",
	OP_RETURN:        "RETURN",
}

// String returns the name of the opcode
func (op Opcode) String() string {
	if name, ok := OpcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// OperandWidth returns the number of operand bytes following op, or -1 for
// an unknown opcode.
func OperandWidth(op Opcode) int {
	switch op {
	case OP_CONSTANT, OP_DEFINE_GLOBAL, OP_SET_GLOBAL, OP_GET_GLOBAL,
		OP_JUMP_IF_FALSE, OP_JUMP:
		return 2
	case OP_GET_LOCAL, OP_SET_LOCAL, OP_BUILD_LIST, OP_CALL, OP_SPAWN:
		return 1
	case OP_PRINT, OP_POP, OP_ADD, OP_SUBTRACT, OP_MULTIPLY, OP_DIVIDE,
		OP_LESS, OP_GREATER, OP_EQUAL, OP_RETURN:
		return 0
	}
	return -1
}
