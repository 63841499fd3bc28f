package dotnet_debugger

import (
	"strconv"
	"strings"

	"github.com/emirpasic/gods/sets/hashset"
	"github.com/fansqz/dotnet-debugger/constants"
	"github.com/fansqz/dotnet-debugger/debugger/dotnet_debugger/corapi"
)

// MemberKind 成员种类
type MemberKind string

const (
	MemberKindField        MemberKind = "field"
	MemberKindProperty     MemberKind = "property"
	MemberKindArrayElement MemberKind = "element"
)

// Member 成员遍历产生的一项成员
// 字段成员携带值（或者不可读取的标记），属性成员只携带getter的token，
// 遍历过程不会调用getter
type Member struct {
	Name     string
	IsStatic bool
	Kind     MemberKind
	// Value 成员的值，回调接管释放；Unavailable为true时为nil
	Value corapi.Value
	// Unavailable 字段存在但值无法读取
	Unavailable bool
	// Getter 属性的getter方法token
	Getter corapi.Token
	// Module 声明该成员的模块，后续解析getter时需要
	Module corapi.Module
	// Type 声明该成员的类型
	Type corapi.Type
}

// WalkMembersCallback 成员访问回调，返回错误会中断整个遍历
type WalkMembersCallback func(member *Member) error

// ValueWalker 值成员遍历工具
// 递归枚举一个运行时值在整条继承链上的字段、属性和数组元素
type ValueWalker struct {
	printer *TypePrinter
}

func NewValueWalker(printer *TypePrinter) *ValueWalker {
	return &ValueWalker{
		printer: printer,
	}
}

// WalkMembers 遍历value的所有成员
// frame用于读取静态字段的值，可以为nil，为nil时静态字段跳过不报错
func (w *ValueWalker) WalkMembers(value corapi.Value, frame corapi.Frame, cb WalkMembersCallback) error {
	return w.walkMembers(value, frame, nil, cb)
}

// walkMembers typeCast不为nil时，用typeCast代替值的精确类型进行遍历，
// 基类递归时以基类型重新遍历同一个值
func (w *ValueWalker) walkMembers(inputValue corapi.Value, frame corapi.Frame, typeCast corapi.Type, cb WalkMembersCallback) error {
	value, isNull, err := inputValue.DereferenceAndUnbox()
	if err != nil {
		return err
	}
	// 真正的空引用没有任何成员
	if isNull && value == nil {
		return nil
	}
	defer value.Release()

	// 数组：按存储顺序逐个访问元素，不再走字段/属性的流程
	if arrayValue, ok := value.AsArray(); ok {
		return w.walkArrayElements(arrayValue, cb)
	}

	typ := typeCast
	if typ == nil {
		typ, err = value.ExactType()
		if err != nil {
			return err
		}
		defer typ.Release()
	}

	elemType, err := typ.ElementType()
	if err != nil {
		return err
	}
	// 字符串作为叶子类型，不展开成员
	if elemType == constants.ElementTypeString {
		return nil
	}

	class, err := typ.Class()
	if err != nil {
		return err
	}
	module, err := class.Module()
	if err != nil {
		return err
	}
	typeDef, err := class.Token()
	if err != nil {
		return err
	}
	md, err := module.Metadata()
	if err != nil {
		return err
	}

	// decimal同样作为叶子类型
	// TODO: 自定义值类型的内部字段遍历机制
	className, _ := w.printer.GetTypeName(typ)
	if className == "decimal" {
		return nil
	}

	// 先检查基类：枚举类型整体不产出成员（包括自身的value__字段）
	base, berr := typ.Base()
	if berr != nil {
		base = nil
	}
	if base != nil {
		defer base.Release()
		baseTypeName, nerr := w.printer.GetTypeName(base)
		if nerr == nil && baseTypeName == constants.SystemEnum {
			return nil
		}
	}

	// 本层已经由backing field折叠产生的属性名集合
	backedProperties := hashset.New()

	fields, err := md.EnumFields(typeDef)
	if err != nil {
		return err
	}
	for _, fieldDef := range fields {
		props, perr := md.FieldProps(fieldDef)
		if perr != nil {
			continue
		}
		name := props.Name
		// 编译期常量没有存储位置
		if props.Attr&constants.FieldAttrLiteral != 0 {
			continue
		}
		isStatic := props.Attr&constants.FieldAttrStatic != 0

		var fieldValue corapi.Value
		if isStatic {
			// 没有栈帧就无法读取静态字段，直接跳过
			if frame == nil {
				continue
			}
			fieldValue, _ = typ.StaticFieldValue(fieldDef, frame)
		} else {
			if objectValue, ok := value.AsObject(); ok {
				fieldValue, _ = objectValue.FieldValue(class, fieldDef)
			}
		}

		if fieldValue != nil {
			if strings.HasPrefix(name, "<") {
				// backing field折叠成逻辑属性名
				if end := strings.LastIndex(name, ">"); end > 0 {
					name = name[1:end]
					backedProperties.Add(name)
				}
			}
			if isNull && !isStatic {
				fieldValue.Release()
				continue
			}
			if err = cb(&Member{
				Name:     name,
				IsStatic: isStatic,
				Kind:     MemberKindField,
				Value:    fieldValue,
				Module:   module,
				Type:     typ,
			}); err != nil {
				return err
			}
		} else {
			// 读不到值的backing field直接丢弃，不需要展示
			if strings.HasPrefix(name, "<") {
				continue
			}
			if isNull && !isStatic {
				continue
			}
			if err = cb(&Member{
				Name:        name,
				IsStatic:    isStatic,
				Kind:        MemberKindField,
				Unavailable: true,
				Module:      module,
				Type:        typ,
			}); err != nil {
				return err
			}
		}
	}

	properties, err := md.EnumProperties(typeDef)
	if err != nil {
		return err
	}
	for _, propertyDef := range properties {
		props, perr := md.PropertyProps(propertyDef)
		if perr != nil {
			continue
		}
		getterProps, perr := md.MethodProps(props.Getter)
		if perr != nil {
			continue
		}
		name := props.Name
		// backing field已经产出同名成员
		if backedProperties.Contains(name) {
			continue
		}
		isStatic := getterProps.Attr&constants.MethodAttrStatic != 0
		if isNull && !isStatic {
			continue
		}
		if err = cb(&Member{
			Name:     name,
			IsStatic: isStatic,
			Kind:     MemberKindProperty,
			Getter:   props.Getter,
			Module:   module,
			Type:     typ,
		}); err != nil {
			return err
		}
	}

	// 继承链：用基类型重新遍历同一个值，本类型的成员在前，基类的成员在后，
	// 到达Object/ValueType时停止
	if base != nil {
		baseTypeName, nerr := w.printer.GetTypeName(base)
		if nerr == nil && baseTypeName != constants.SystemObject && baseTypeName != constants.SystemValueType {
			return w.walkMembers(inputValue, frame, base, cb)
		}
	}
	return nil
}

// walkArrayElements 按存储顺序访问数组的每个元素
// 名称为[i0, i1, ...]，下标从每一维的下界开始，按里程表方式递增（最后一维最快）
func (w *ValueWalker) walkArrayElements(arrayValue corapi.ArrayValue, cb WalkMembersCallback) error {
	rank, err := arrayValue.Rank()
	if err != nil {
		return err
	}
	count, err := arrayValue.Count()
	if err != nil {
		return err
	}
	dims, err := arrayValue.Dimensions()
	if err != nil {
		return err
	}
	base := make([]int, rank)
	if b, ok, berr := arrayValue.BaseIndices(); berr == nil && ok {
		base = b
	}

	ind := make([]int, rank)
	for i := 0; i < count; i++ {
		member := &Member{
			Name: "[" + indicesToString(ind, base) + "]",
			Kind: MemberKindArrayElement,
		}
		elem, eerr := arrayValue.ElementAtPosition(i)
		if eerr != nil || elem == nil {
			member.Unavailable = true
		} else {
			member.Value = elem
		}
		if err = cb(member); err != nil {
			return err
		}
		incIndices(ind, dims)
	}
	return nil
}

// incIndices 多维下标按里程表方式加一，最后一维增长最快，进位向左传递
func incIndices(ind []int, dims []int) {
	for i := len(ind) - 1; i >= 0; i-- {
		ind[i]++
		if ind[i] < dims[i] {
			return
		}
		ind[i] = 0
	}
}

// indicesToString 把多维下标拼接成"i0, i1"形式，每一维加上下界偏移
func indicesToString(ind []int, base []int) string {
	if len(ind) < 1 || len(base) != len(ind) {
		return ""
	}
	var sb strings.Builder
	sep := ""
	for i := range ind {
		sb.WriteString(sep)
		sep = ", "
		sb.WriteString(strconv.Itoa(base[i] + ind[i]))
	}
	return sb.String()
}
