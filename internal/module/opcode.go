package module

// Opcode identifies one instruction kind in a Module's instruction
// array. Operand meaning is documented per opcode below; unused
// operands are left zero.
type Opcode uint8

const (
	OpNop Opcode = iota

	// Stack / constant loading. A = constant index (PushConst), or
	// unused (PushNone/PushNull/PushTrue/PushFalse).
	OpPushConst
	OpPushNone
	OpPushNull
	OpPushTrue
	OpPushFalse
	OpPop
	OpDup

	// Locals and globals. A = symbol index of the name. OpDeclareLocal
	// and OpDeclareGlobal additionally carry B = flag bits and create
	// the binding (raising if the name is already defined in scope);
	// OpLoadLocal/OpStoreLocal/OpLoadGlobal/OpStoreGlobal address an
	// already-declared binding.
	OpDeclareLocal
	OpDeclareGlobal
	OpLoadLocal
	OpStoreLocal
	OpLoadGlobal
	OpStoreGlobal
	OpLoadUpvalue
	OpStoreUpvalue

	// Members. A = symbol index of the member name.
	OpLoadMember
	OpStoreMember
	OpMembersOf

	// Reference operations: clone, copy-into, move-into, weak-share.
	OpClone
	OpCopy
	OpMove
	OpWeakShare

	// Control flow. A = absolute instruction offset.
	OpJump
	OpJumpIfFalse
	OpJumpIfTrue

	// Calls. A = argument count. OpCallOperator additionally carries
	// B = symbol index of the operator name (for +, ==, [], ...).
	// OpInitCall moves the callee from the operand stack onto the
	// pending-call stack (B != 0 marks a bound member call) while its
	// arguments are evaluated; OpExitCall pops it back and performs
	// the call with A arguments. OpCall is the fused form for call
	// sites whose callee is evaluated immediately before its arguments.
	OpCall
	OpCallOperator
	OpInitCall
	OpExitCall
	OpReturn

	// Construction. OpRegisterClass (A = symbol index of the class
	// name) publishes the named class record carried by the current
	// module into the process-wide class registry; a class must be
	// registered before the first OpNew names it. OpNew carries A =
	// symbol index of the class name, B = argc.
	OpRegisterClass
	OpNew

	// Exceptions. OpPushRetrieve marks A as the jump target of the
	// matching `recover` block; OpPopRetrieve removes the top handler;
	// OpRaise begins unwinding with the top-of-stack value.
	OpPushRetrieve
	OpPopRetrieve
	OpRaise

	// Collections. A = element count for OpMakeArray; OpMakeHash takes
	// no operand (it is built via repeated subscript-assign instead).
	OpMakeArray
	OpMakeHash

	// Closures. A = constant index of the function prototype, B =
	// upvalue count that follows as individual OpLoadLocal/OpLoadUpvalue
	// captures performed by the compiler before OpMakeClosure runs.
	OpMakeClosure

	// Cooperative scheduling.
	OpYield
	OpSpawn

	// Native interop: A = symbol index of the library path constant.
	OpLibraryCall

	// Ranges. Pops end then start; B != 0 selects inclusive (a..b).
	OpRange

	// Reflection. OpTypeOf pushes the operand's class/metatype name as
	// a string; OpIs reads a class-name symbol (A), pops an operand and
	// pushes whether the operand's resolved class is or inherits it.
	OpTypeOf
	OpIs

	// Printer stack. OpOpenPrinter pushes a new sink onto the current
	// frame's printer stack; OpClosePrinter flushes and pops it;
	// OpPrint writes the top-of-stack value's string form to the
	// innermost open printer (falling back to the cursor's stdout sink
	// if none is open).
	OpOpenPrinter
	OpClosePrinter
	OpPrint

	// OpExit unwinds the whole cursor; B != 0 additionally signals the
	// scheduler to stop the process with the top-of-stack as status.
	OpExit

	// OpLoadVarSymbol looks up a symbol whose name is computed at run
	// time: it pops a string off the stack and resolves it like
	// OpLoadLocal falling back to globals, raising if undefined.
	OpLoadVarSymbol

	// Definedness probes. OpFindDefinedLocal (A = symbol index) pushes
	// the named binding's value or NONE, never raising; likewise
	// OpFindDefinedMember against the object on top of the stack.
	// OpCheckDefined pops a value and pushes whether it is anything
	// other than NONE.
	OpFindDefinedLocal
	OpFindDefinedMember
	OpCheckDefined

	OpHalt
)
