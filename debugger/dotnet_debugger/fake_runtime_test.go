package dotnet_debugger

import (
	"fmt"

	"github.com/fansqz/dotnet-debugger/constants"
	"github.com/fansqz/dotnet-debugger/debugger/dotnet_debugger/corapi"
)

// 测试用的运行时假实现，只实现测试需要的能力，
// 没有配置的查询一律返回错误

type fakeMetadata struct {
	typeDefs   map[corapi.Token]*corapi.TypeDefProps
	nested     map[corapi.Token]corapi.Token
	fields     map[corapi.Token]*corapi.FieldProps
	methods    map[corapi.Token]*corapi.MethodProps
	properties map[corapi.Token]*corapi.PropertyProps
	typeFields map[corapi.Token][]corapi.Token
	typeProps  map[corapi.Token][]corapi.Token
	generics   map[corapi.Token]int
	// methodParams 方法token -> 参数token列表，下标0对应元数据里的第1个参数
	methodParams map[corapi.Token][]corapi.Token
	params       map[corapi.Token]*corapi.ParamProps
}

func newFakeMetadata() *fakeMetadata {
	return &fakeMetadata{
		typeDefs:     map[corapi.Token]*corapi.TypeDefProps{},
		nested:       map[corapi.Token]corapi.Token{},
		fields:       map[corapi.Token]*corapi.FieldProps{},
		methods:      map[corapi.Token]*corapi.MethodProps{},
		properties:   map[corapi.Token]*corapi.PropertyProps{},
		typeFields:   map[corapi.Token][]corapi.Token{},
		typeProps:    map[corapi.Token][]corapi.Token{},
		generics:     map[corapi.Token]int{},
		methodParams: map[corapi.Token][]corapi.Token{},
		params:       map[corapi.Token]*corapi.ParamProps{},
	}
}

func (m *fakeMetadata) TypeDefProps(typeDef corapi.Token) (*corapi.TypeDefProps, error) {
	if props, ok := m.typeDefs[typeDef]; ok {
		return props, nil
	}
	return nil, fmt.Errorf("typedef 0x%x not found", uint32(typeDef))
}

func (m *fakeMetadata) NestedClassProps(typeDef corapi.Token) (corapi.Token, error) {
	if enclosing, ok := m.nested[typeDef]; ok {
		return enclosing, nil
	}
	return corapi.NilToken, fmt.Errorf("typedef 0x%x is not nested", uint32(typeDef))
}

func (m *fakeMetadata) FieldProps(field corapi.Token) (*corapi.FieldProps, error) {
	if props, ok := m.fields[field]; ok {
		return props, nil
	}
	return nil, fmt.Errorf("field 0x%x not found", uint32(field))
}

func (m *fakeMetadata) MethodProps(method corapi.Token) (*corapi.MethodProps, error) {
	if props, ok := m.methods[method]; ok {
		return props, nil
	}
	return nil, fmt.Errorf("method 0x%x not found", uint32(method))
}

func (m *fakeMetadata) PropertyProps(property corapi.Token) (*corapi.PropertyProps, error) {
	if props, ok := m.properties[property]; ok {
		return props, nil
	}
	return nil, fmt.Errorf("property 0x%x not found", uint32(property))
}

func (m *fakeMetadata) EnumFields(typeDef corapi.Token) ([]corapi.Token, error) {
	return m.typeFields[typeDef], nil
}

func (m *fakeMetadata) EnumProperties(typeDef corapi.Token) ([]corapi.Token, error) {
	return m.typeProps[typeDef], nil
}

func (m *fakeMetadata) CountGenericParams(method corapi.Token) (int, error) {
	return m.generics[method], nil
}

func (m *fakeMetadata) ParamForMethodIndex(method corapi.Token, index int) (corapi.Token, error) {
	params := m.methodParams[method]
	if index < 1 || index > len(params) {
		return corapi.NilToken, fmt.Errorf("method 0x%x has no param %d", uint32(method), index)
	}
	return params[index-1], nil
}

func (m *fakeMetadata) ParamProps(param corapi.Token) (*corapi.ParamProps, error) {
	if props, ok := m.params[param]; ok {
		return props, nil
	}
	return nil, fmt.Errorf("param 0x%x not found", uint32(param))
}

type fakeModule struct {
	name string
	md   corapi.Metadata
}

func (m *fakeModule) Name() (string, error) {
	return m.name, nil
}

func (m *fakeModule) Metadata() (corapi.Metadata, error) {
	if m.md == nil {
		return nil, fmt.Errorf("no metadata")
	}
	return m.md, nil
}

type fakeClass struct {
	token  corapi.Token
	module corapi.Module
}

func (c *fakeClass) Token() (corapi.Token, error) {
	return c.token, nil
}

func (c *fakeClass) Module() (corapi.Module, error) {
	if c.module == nil {
		return nil, fmt.Errorf("no module")
	}
	return c.module, nil
}

type fakeFunction struct {
	token  corapi.Token
	class  corapi.Class
	module corapi.Module
}

func (f *fakeFunction) Token() (corapi.Token, error) {
	return f.token, nil
}

func (f *fakeFunction) Class() (corapi.Class, error) {
	return f.class, nil
}

func (f *fakeFunction) Module() (corapi.Module, error) {
	return f.module, nil
}

type fakeType struct {
	elem       constants.ElementType
	class      corapi.Class
	typeParams []corapi.Type
	first      corapi.Type
	rank       int
	base       corapi.Type
	statics    map[corapi.Token]corapi.Value
	releases   int
}

func (t *fakeType) ElementType() (constants.ElementType, error) {
	return t.elem, nil
}

func (t *fakeType) Class() (corapi.Class, error) {
	if t.class == nil {
		return nil, fmt.Errorf("type has no class")
	}
	return t.class, nil
}

func (t *fakeType) TypeParameters() ([]corapi.Type, error) {
	return t.typeParams, nil
}

func (t *fakeType) FirstTypeParameter() (corapi.Type, error) {
	if t.first == nil {
		return nil, fmt.Errorf("type has no element type")
	}
	return t.first, nil
}

func (t *fakeType) Rank() (int, error) {
	return t.rank, nil
}

func (t *fakeType) Base() (corapi.Type, error) {
	return t.base, nil
}

func (t *fakeType) StaticFieldValue(field corapi.Token, frame corapi.Frame) (corapi.Value, error) {
	if value, ok := t.statics[field]; ok {
		return value, nil
	}
	return nil, fmt.Errorf("static field 0x%x unavailable", uint32(field))
}

func (t *fakeType) Release() {
	t.releases++
}

type fakeValue struct {
	elem constants.ElementType
	// deref 解引用拆箱以后的值，为nil表示自身已经是展开后的值
	deref    corapi.Value
	isNull   bool
	exact    corapi.Type
	arr      corapi.ArrayValue
	obj      corapi.ObjectValue
	releases int
}

func (v *fakeValue) ElementType() (constants.ElementType, error) {
	return v.elem, nil
}

func (v *fakeValue) DereferenceAndUnbox() (corapi.Value, bool, error) {
	if v.isNull && v.deref == nil {
		return nil, true, nil
	}
	if v.deref != nil {
		return v.deref, v.isNull, nil
	}
	return v, v.isNull, nil
}

func (v *fakeValue) ExactType() (corapi.Type, error) {
	if v.exact == nil {
		return nil, fmt.Errorf("value has no exact type")
	}
	return v.exact, nil
}

func (v *fakeValue) AsArray() (corapi.ArrayValue, bool) {
	if v.arr == nil {
		return nil, false
	}
	return v.arr, true
}

func (v *fakeValue) AsObject() (corapi.ObjectValue, bool) {
	if v.obj == nil {
		return nil, false
	}
	return v.obj, true
}

func (v *fakeValue) Release() {
	v.releases++
}

type fakeObject struct {
	fields map[corapi.Token]corapi.Value
}

func (o *fakeObject) FieldValue(class corapi.Class, field corapi.Token) (corapi.Value, error) {
	if value, ok := o.fields[field]; ok {
		return value, nil
	}
	return nil, fmt.Errorf("field 0x%x unavailable", uint32(field))
}

type fakeArray struct {
	rank int
	dims []int
	base []int
	// elems 按存储顺序排列，nil表示该元素读取失败
	elems []corapi.Value
}

func (a *fakeArray) Rank() (int, error) {
	return a.rank, nil
}

func (a *fakeArray) Count() (int, error) {
	return len(a.elems), nil
}

func (a *fakeArray) Dimensions() ([]int, error) {
	return a.dims, nil
}

func (a *fakeArray) BaseIndices() ([]int, bool, error) {
	if a.base == nil {
		return nil, false, nil
	}
	return a.base, true, nil
}

func (a *fakeArray) ElementAtPosition(index int) (corapi.Value, error) {
	if index < 0 || index >= len(a.elems) {
		return nil, fmt.Errorf("index %d out of range", index)
	}
	if a.elems[index] == nil {
		return nil, fmt.Errorf("element %d unavailable", index)
	}
	return a.elems[index], nil
}

type fakeValueEnum struct {
	values []corapi.Value
	pos    int
}

func (e *fakeValueEnum) Count() (int, error) {
	return len(e.values), nil
}

func (e *fakeValueEnum) Next() (corapi.Value, bool, error) {
	if e.pos >= len(e.values) {
		return nil, false, nil
	}
	value := e.values[e.pos]
	e.pos++
	return value, true, nil
}

type fakeFrame struct {
	function   corapi.Function
	ip         uint32
	args       []corapi.Value
	locals     []corapi.Value
	typeParams []corapi.Type
}

func (f *fakeFrame) Function() (corapi.Function, error) {
	if f.function == nil {
		return nil, fmt.Errorf("no function")
	}
	return f.function, nil
}

func (f *fakeFrame) IP() (uint32, error) {
	return f.ip, nil
}

func (f *fakeFrame) EnumerateArguments() (corapi.ValueEnum, error) {
	return &fakeValueEnum{values: f.args}, nil
}

func (f *fakeFrame) EnumerateLocalVariables() (corapi.ValueEnum, error) {
	return &fakeValueEnum{values: f.locals}, nil
}

func (f *fakeFrame) EnumerateTypeParameters() ([]corapi.Type, error) {
	return f.typeParams, nil
}

// fakeScopeSource 按声明顺序返回配置好的局部变量信息
type fakeScopeSource struct {
	locals []*corapi.NamedLocal
}

func (s *fakeScopeSource) NamedLocalVariable(frame corapi.Frame, method corapi.Token, slot int) (*corapi.NamedLocal, error) {
	if slot >= len(s.locals) {
		return nil, nil
	}
	return s.locals[slot], nil
}

type fakeProcess struct {
	continueCount int
	onContinue    func()
}

func (p *fakeProcess) Continue() error {
	p.continueCount++
	if p.onContinue != nil {
		p.onContinue()
	}
	return nil
}

type fakeEval struct {
	submitErr error
	result    corapi.Value

	submitted bool
	fn        corapi.Function
	class     corapi.Class
	typeArgs  []corapi.Type
	args      []corapi.Value
}

func (e *fakeEval) CallParameterizedFunction(fn corapi.Function, typeArgs []corapi.Type, args []corapi.Value) error {
	if e.submitErr != nil {
		return e.submitErr
	}
	e.submitted = true
	e.fn = fn
	e.typeArgs = typeArgs
	e.args = args
	return nil
}

func (e *fakeEval) NewParameterizedObjectNoConstructor(class corapi.Class, typeArgs []corapi.Type) error {
	if e.submitErr != nil {
		return e.submitErr
	}
	e.submitted = true
	e.class = class
	e.typeArgs = typeArgs
	return nil
}

func (e *fakeEval) Result() (corapi.Value, error) {
	if e.result == nil {
		return nil, fmt.Errorf("no eval result")
	}
	return e.result, nil
}

type fakeThread struct {
	process *fakeProcess
	frames  []corapi.Frame
	eval    *fakeEval
	// nextResults 每次创建eval时预置的结果，模拟连续多次求值
	nextResults []corapi.Value
	// submitErr 预置给新建eval的提交错误
	submitErr error
}

func (t *fakeThread) Process() (corapi.Process, error) {
	return t.process, nil
}

func (t *fakeThread) Frames() ([]corapi.Frame, error) {
	return t.frames, nil
}

func (t *fakeThread) CreateEval() (corapi.Eval, error) {
	eval := &fakeEval{submitErr: t.submitErr}
	if len(t.nextResults) > 0 {
		eval.result = t.nextResults[0]
		t.nextResults = t.nextResults[1:]
	}
	t.eval = eval
	return eval, nil
}

// 测试里常用的简单类型
func intType() *fakeType {
	return &fakeType{elem: constants.ElementTypeI4}
}

func stringType() *fakeType {
	return &fakeType{elem: constants.ElementTypeString}
}

// newClassType 构造一个关联元数据的class类型
func newClassType(md corapi.Metadata, token corapi.Token, name string, attr uint32) *fakeType {
	if fm, ok := md.(*fakeMetadata); ok {
		if _, exists := fm.typeDefs[token]; !exists {
			fm.typeDefs[token] = &corapi.TypeDefProps{Name: name, Attr: attr}
		}
	}
	module := &fakeModule{name: "test.dll", md: md}
	return &fakeType{
		elem:  constants.ElementTypeClass,
		class: &fakeClass{token: token, module: module},
	}
}
