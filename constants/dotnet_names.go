package constants

// 运行时中一些需要特判的类型全名
const (
	// SystemObject 所有引用类型的基类，成员遍历到这里为止
	SystemObject = "System.Object"
	// SystemValueType 所有值类型的基类，成员遍历到这里为止
	SystemValueType = "System.ValueType"
	// SystemEnum 枚举基类，枚举类型不展开成员
	SystemEnum = "System.Enum"
	// SystemDecimal 十进制数类型，显示为别名decimal，并且作为叶子类型不展开成员
	SystemDecimal = "System.Decimal"
)

// 编译器改写源码时合成的特殊名称前缀
const (
	// CapturedLocalPrefix 被闭包捕获后提升的局部变量容器的前缀
	CapturedLocalPrefix = "CS$<>"
	// DisplayClassPrefix 闭包容器类型的简单名称前缀，this是该类型时需要平铺展示成员
	DisplayClassPrefix = "<>c__DisplayClass"
	// HideClassPrefix 静态lambda容器类型的简单名称前缀，this是该类型时直接隐藏
	HideClassPrefix = "<>c"
)
