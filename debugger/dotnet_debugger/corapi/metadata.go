package corapi

// TypeDefProps 类型定义的元数据属性
type TypeDefProps struct {
	Name string
	Attr uint32
}

// FieldProps 字段的元数据属性
type FieldProps struct {
	Name  string
	Attr  uint32
	Class Token // 声明该字段的类型token
}

// MethodProps 方法的元数据属性
type MethodProps struct {
	Name  string
	Attr  uint32
	Class Token // 声明该方法的类型token
}

// PropertyProps 属性的元数据属性，遍历成员时只需要名称和getter
type PropertyProps struct {
	Name   string
	Class  Token
	Getter Token
}

// ParamProps 方法参数的元数据属性
type ParamProps struct {
	Name string
}

// Metadata 模块元数据的读取接口，按token查询名称、属性和关联关系
type Metadata interface {
	// TypeDefProps 查询类型定义的名称和属性
	TypeDefProps(typeDef Token) (*TypeDefProps, error)
	// NestedClassProps 查询嵌套类型的外围类型token
	NestedClassProps(typeDef Token) (Token, error)
	// FieldProps 查询字段的名称和属性
	FieldProps(field Token) (*FieldProps, error)
	// MethodProps 查询方法的名称和属性
	MethodProps(method Token) (*MethodProps, error)
	// PropertyProps 查询属性的名称和getter方法token
	PropertyProps(property Token) (*PropertyProps, error)
	// EnumFields 枚举直接声明在typeDef上的所有字段，按声明顺序
	EnumFields(typeDef Token) ([]Token, error)
	// EnumProperties 枚举直接声明在typeDef上的所有属性，按声明顺序
	EnumProperties(typeDef Token) ([]Token, error)
	// CountGenericParams 查询方法自身的泛型形参个数
	CountGenericParams(method Token) (int, error)
	// ParamForMethodIndex 查询方法第index个参数的token，index从1开始
	ParamForMethodIndex(method Token, index int) (Token, error)
	// ParamProps 查询参数的名称
	ParamProps(param Token) (*ParamProps, error)
}
