// Package corapi 定义调试核心所消费的运行时调试接口
// 对应托管运行时暴露的调试能力（值句柄、类型句柄、元数据、栈帧、求值），
// 由外部的attach/launch层负责提供具体实现并保证句柄在调用期间有效。
package corapi

import (
	"github.com/fansqz/dotnet-debugger/constants"
)

// Token 元数据token，类型、字段、方法、属性、参数共用一种编码
type Token uint32

// NilToken 空token
const NilToken Token = 0

// Value 被调试进程中某个类型化存储位置的句柄
// 每次获取都会产生一个新的独占句柄，使用完毕必须调用Release释放
type Value interface {
	// ElementType 返回值的元素类型编码
	ElementType() (constants.ElementType, error)
	// DereferenceAndUnbox 解引用并拆箱（引用、装箱、byref、指针逐层展开）
	// 返回展开后的值，isNull表示这是一个空引用，空引用时展开值可能为nil
	DereferenceAndUnbox() (value Value, isNull bool, err error)
	// ExactType 查询值的精确运行时类型，不是所有值都支持该能力
	ExactType() (Type, error)
	// AsArray 如果该值是数组，返回数组视图
	AsArray() (ArrayValue, bool)
	// AsObject 如果该值是对象，返回对象视图，用于读取实例字段
	AsObject() (ObjectValue, bool)
	// Release 释放句柄
	Release()
}

// ArrayValue 数组值的视图
type ArrayValue interface {
	// Rank 数组维数
	Rank() (int, error)
	// Count 元素总数
	Count() (int, error)
	// Dimensions 每一维的长度，长度为Rank
	Dimensions() ([]int, error)
	// BaseIndices 每一维的下界，ok为false表示所有维的下界都是0
	BaseIndices() (base []int, ok bool, err error)
	// ElementAtPosition 按存储顺序读取第index个元素
	ElementAtPosition(index int) (Value, error)
}

// ObjectValue 对象值的视图
type ObjectValue interface {
	// FieldValue 读取声明在class上的实例字段field的值
	FieldValue(class Class, field Token) (Value, error)
}

// Type 已解析的类型描述符
type Type interface {
	// ElementType 类型的元素类型编码
	ElementType() (constants.ElementType, error)
	// Class 类型对应的类，只有class/valuetype类型支持
	Class() (Class, error)
	// TypeParameters 泛型实参列表，非泛型类型返回空列表
	TypeParameters() ([]Type, error)
	// FirstTypeParameter 数组、指针、byref类型的元素类型
	FirstTypeParameter() (Type, error)
	// Rank 数组类型的维数
	Rank() (int, error)
	// Base 直接基类型，没有基类时返回nil
	Base() (Type, error)
	// StaticFieldValue 通过栈帧读取静态字段的值
	StaticFieldValue(field Token, frame Frame) (Value, error)
	// Release 释放句柄
	Release()
}

// Class 类句柄，关联元数据token和所在模块
type Class interface {
	Token() (Token, error)
	Module() (Module, error)
}

// Module 模块句柄
type Module interface {
	Name() (string, error)
	// Metadata 模块的元数据读取接口
	Metadata() (Metadata, error)
}

// Function 函数句柄
type Function interface {
	Token() (Token, error)
	Class() (Class, error)
	Module() (Module, error)
}
