package constants

// ElementType 对应运行时元数据中的元素类型编码（CorElementType）
// 类型名称的拼接、数组/指针的识别都依赖这个编码
type ElementType uint32

const (
	ElementTypeEnd         ElementType = 0x00
	ElementTypeVoid        ElementType = 0x01
	ElementTypeBoolean     ElementType = 0x02
	ElementTypeChar        ElementType = 0x03
	ElementTypeI1          ElementType = 0x04
	ElementTypeU1          ElementType = 0x05
	ElementTypeI2          ElementType = 0x06
	ElementTypeU2          ElementType = 0x07
	ElementTypeI4          ElementType = 0x08
	ElementTypeU4          ElementType = 0x09
	ElementTypeI8          ElementType = 0x0a
	ElementTypeU8          ElementType = 0x0b
	ElementTypeR4          ElementType = 0x0c
	ElementTypeR8          ElementType = 0x0d
	ElementTypeString      ElementType = 0x0e
	ElementTypePtr         ElementType = 0x0f
	ElementTypeByRef       ElementType = 0x10
	ElementTypeValueType   ElementType = 0x11
	ElementTypeClass       ElementType = 0x12
	ElementTypeVar         ElementType = 0x13
	ElementTypeArray       ElementType = 0x14
	ElementTypeGenericInst ElementType = 0x15
	ElementTypeTypedByRef  ElementType = 0x16
	ElementTypeI           ElementType = 0x18
	ElementTypeU           ElementType = 0x19
	ElementTypeFnPtr       ElementType = 0x1b
	ElementTypeObject      ElementType = 0x1c
	ElementTypeSZArray     ElementType = 0x1d
	ElementTypeMVar        ElementType = 0x1e
)

// token的高8位表示token种类
const (
	TokenKindMask      uint32 = 0xff000000
	TokenKindTypeDef   uint32 = 0x02000000
	TokenKindFieldDef  uint32 = 0x04000000
	TokenKindMethodDef uint32 = 0x06000000
)

// 元数据属性标志位，字段、方法、类型定义通用
const (
	// FieldAttrStatic 静态字段
	FieldAttrStatic uint32 = 0x0010
	// FieldAttrLiteral 编译期常量字段，没有存储位置，不能被读取
	FieldAttrLiteral uint32 = 0x0040
	// MethodAttrStatic 静态方法
	MethodAttrStatic uint32 = 0x0010
	// TypeAttrVisibilityMask 类型可见性掩码
	TypeAttrVisibilityMask uint32 = 0x0007
	// TypeAttrNestedPublic 嵌套类型可见性的最小值，>= 该值说明是嵌套类型
	TypeAttrNestedPublic uint32 = 0x0002
)

// IsNestedType 根据类型定义的属性判断是否是嵌套类型
func IsNestedType(typeAttr uint32) bool {
	return typeAttr&TypeAttrVisibilityMask >= TypeAttrNestedPublic
}
