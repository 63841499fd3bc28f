package corapi

// Frame 栈帧句柄
type Frame interface {
	// Function 栈帧对应的函数
	Function() (Function, error)
	// IP 当前IL偏移
	IP() (uint32, error)
	// EnumerateArguments 枚举栈帧的参数
	EnumerateArguments() (ValueEnum, error)
	// EnumerateLocalVariables 枚举栈帧的局部变量
	EnumerateLocalVariables() (ValueEnum, error)
	// EnumerateTypeParameters 栈帧上绑定的泛型类型实参
	EnumerateTypeParameters() ([]Type, error)
}

// ValueEnum 值枚举器
type ValueEnum interface {
	// Count 值的总数
	Count() (int, error)
	// Next 获取下一个值，枚举结束时ok为false
	Next() (value Value, ok bool, err error)
}

// Thread 被调试进程中的线程句柄
type Thread interface {
	// Process 线程所在的进程
	Process() (Process, error)
	// Frames 线程当前的栈帧列表，自顶向下
	Frames() ([]Frame, error)
	// CreateEval 在该线程上创建一次求值
	CreateEval() (Eval, error)
}

// Process 被调试进程句柄
type Process interface {
	// Continue 恢复整个进程的执行
	Continue() error
}

// Eval 一次进程内求值，提交以后通过完成回调获取结果
type Eval interface {
	// CallParameterizedFunction 提交一次函数调用，typeArgs为泛型实参，args最多一个参数
	CallParameterizedFunction(fn Function, typeArgs []Type, args []Value) error
	// NewParameterizedObjectNoConstructor 提交一次不执行构造函数的对象分配
	NewParameterizedObjectNoConstructor(class Class, typeArgs []Type) error
	// Result 求值完成以后获取结果
	// 被调试程序在求值过程中抛出的异常也会作为结果值返回，协议上属于成功
	Result() (Value, error)
}

// NamedLocal 符号文件中记录的局部变量信息
type NamedLocal struct {
	Name  string
	Value Value
	// [StartIL, EndIL) 该局部变量的有效IL偏移区间
	StartIL uint32
	EndIL   uint32
}

// ScopeSource 局部变量作用域信息的来源，是对符号文件的一个窄查询接口
type ScopeSource interface {
	// NamedLocalVariable 返回栈帧中第slot个局部变量的名称、值和有效区间
	// 没有更多局部变量时返回(nil, nil)
	NamedLocalVariable(frame Frame, method Token, slot int) (*NamedLocal, error)
}
