package dotnet_debugger

import (
	"fmt"
	"strings"

	"github.com/fansqz/dotnet-debugger/constants"
	"github.com/fansqz/dotnet-debugger/debugger/dotnet_debugger/corapi"
	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
)

// UnknownTypeName 无法获取精确类型时的占位名称
const UnknownTypeName = "<unknown>"

// typeNameCacheSize 类型名称缓存大小
const typeNameCacheSize = 1024

// TypePrinter 类型名称工具
// 把元数据token和类型句柄解析成展示用的类型名称、方法名称
type TypePrinter struct {
	// nameCache 缓存TypeDef的完整名称，嵌套类型的名称解析需要逐层查询元数据
	nameCache *lru.Cache
}

type typeNameCacheKey struct {
	md      corapi.Metadata
	typeDef corapi.Token
}

func NewTypePrinter() *TypePrinter {
	cache, _ := lru.New(typeNameCacheSize)
	return &TypePrinter{
		nameCache: cache,
	}
}

// NameForTypeDef 解析TypeDef的名称
// 嵌套类型会向外逐层查询外围类型，用`+`拼接成完整名称
func (p *TypePrinter) NameForTypeDef(typeDef corapi.Token, md corapi.Metadata) (string, error) {
	key := typeNameCacheKey{md: md, typeDef: typeDef}
	if name, ok := p.nameCache.Get(key); ok {
		return name.(string), nil
	}

	props, err := md.TypeDefProps(typeDef)
	if err != nil {
		return "", err
	}
	name := props.Name
	if constants.IsNestedType(props.Attr) {
		enclosing, err := md.NestedClassProps(typeDef)
		if err != nil {
			return "", err
		}
		enclosingName, err := p.NameForTypeDef(enclosing, md)
		if err != nil {
			return "", err
		}
		name = enclosingName + "+" + name
	}
	p.nameCache.Add(key, name)
	return name, nil
}

// NameForToken 解析类型、字段、方法token的名称
// withClass为true时，字段和方法的名称会带上声明类型的前缀
func (p *TypePrinter) NameForToken(token corapi.Token, md corapi.Metadata, withClass bool) (string, error) {
	switch uint32(token) & constants.TokenKindMask {
	case constants.TokenKindTypeDef:
		return p.NameForTypeDef(token, md)
	case constants.TokenKindFieldDef:
		props, err := md.FieldProps(token)
		if err != nil {
			return "", err
		}
		name := props.Name
		if withClass && props.Class != corapi.NilToken {
			className, err := p.NameForTypeDef(props.Class, md)
			if err != nil {
				return "", err
			}
			name = className + "." + name
		}
		return name, nil
	case constants.TokenKindMethodDef:
		props, err := md.MethodProps(token)
		if err != nil {
			return "", err
		}
		name := props.Name
		if withClass && props.Class != corapi.NilToken {
			className, err := p.NameForTypeDef(props.Class, md)
			if err != nil {
				return "", err
			}
			name = className + "." + name
		}
		return name, nil
	default:
		return "", fmt.Errorf("unsupported token kind: 0x%x", uint32(token)&constants.TokenKindMask)
	}
}

// GetTypeNameOfValue 获取某个值的类型名称
// 值不支持精确类型查询或者解析失败时返回占位名称，不向调用方返回错误
func (p *TypePrinter) GetTypeNameOfValue(value corapi.Value) string {
	typ, err := value.ExactType()
	if err != nil {
		return UnknownTypeName
	}
	defer typ.Release()
	name, err := p.GetTypeName(typ)
	if err != nil {
		logrus.Errorf("[TypePrinter] GetTypeNameOfValue fail, err = %v", err)
		return UnknownTypeName
	}
	return name
}

// GetTypeName 获取类型的展示名称
func (p *TypePrinter) GetTypeName(typ corapi.Type) (string, error) {
	elementType, arrayType, err := p.typeNameParts(typ)
	if err != nil {
		return "", err
	}
	return elementType + arrayType, nil
}

// typeNameParts 把类型拆解成核心名称和数组/指针/byref修饰
// 数组、指针、byref会递归解析元素类型，修饰部分由递归调用逐层拼接，
// 保证数组的数组、指向数组的指针这类嵌套类型的修饰顺序正确
func (p *TypePrinter) typeNameParts(typ corapi.Type) (elementType string, arrayType string, err error) {
	corElemType, err := typ.ElementType()
	if err != nil {
		return "", "", err
	}

	switch corElemType {
	case constants.ElementTypeValueType, constants.ElementTypeClass:
		// 类名解析失败时只留下空名称，交给调用方兜底
		var sb strings.Builder
		class, cerr := typ.Class()
		if cerr == nil {
			token, terr := class.Token()
			if terr == nil {
				module, merr := class.Module()
				if merr != nil {
					return "", "", merr
				}
				md, merr := module.Metadata()
				if merr != nil {
					return "", "", merr
				}
				if name, nerr := p.NameForToken(token, md, false); nerr == nil {
					if name == constants.SystemDecimal {
						sb.WriteString("decimal")
					} else {
						sb.WriteString(name)
					}
				}
			}
		}
		p.addGenericArgs(typ, &sb)
		return sb.String(), "", nil

	case constants.ElementTypeVoid:
		elementType = "void"
	case constants.ElementTypeBoolean:
		elementType = "bool"
	case constants.ElementTypeChar:
		elementType = "char"
	case constants.ElementTypeI1:
		elementType = "sbyte"
	case constants.ElementTypeU1:
		elementType = "byte"
	case constants.ElementTypeI2:
		elementType = "short"
	case constants.ElementTypeU2:
		elementType = "ushort"
	case constants.ElementTypeI4:
		elementType = "int"
	case constants.ElementTypeU4:
		elementType = "uint"
	case constants.ElementTypeI8:
		elementType = "long"
	case constants.ElementTypeU8:
		elementType = "ulong"
	case constants.ElementTypeR4:
		elementType = "float"
	case constants.ElementTypeR8:
		elementType = "double"
	case constants.ElementTypeObject:
		elementType = "object"
	case constants.ElementTypeString:
		elementType = "string"
	case constants.ElementTypeI:
		elementType = "IntPtr"
	case constants.ElementTypeU:
		elementType = "UIntPtr"
	case constants.ElementTypeFnPtr:
		elementType = "*(...)"
	case constants.ElementTypeTypedByRef:
		elementType = "typedbyref"

	case constants.ElementTypeSZArray, constants.ElementTypeArray,
		constants.ElementTypeByRef, constants.ElementTypePtr:
		subElementType := UnknownTypeName
		subArrayType := ""
		if first, ferr := typ.FirstTypeParameter(); ferr == nil {
			defer first.Release()
			subElementType, subArrayType, err = p.typeNameParts(first)
			if err != nil {
				return "", "", err
			}
		}
		elementType = subElementType
		switch corElemType {
		case constants.ElementTypeSZArray:
			arrayType = "[]" + subArrayType
		case constants.ElementTypeArray:
			rank, _ := typ.Rank()
			var sb strings.Builder
			sb.WriteString("[")
			for i := 0; i < rank-1; i++ {
				sb.WriteString(",")
			}
			sb.WriteString("]")
			arrayType = sb.String() + subArrayType
		case constants.ElementTypeByRef:
			arrayType = subArrayType + "&"
		case constants.ElementTypePtr:
			arrayType = subArrayType + "*"
		}
		return elementType, arrayType, nil

	default:
		elementType = fmt.Sprintf("(Unhandled ElementType: 0x%x)", uint32(corElemType))
	}
	return elementType, arrayType, nil
}

// addGenericArgs 拼接泛型实参列表<T1,T2,...>
// 单个实参解析失败只会留下空名称，不会中断整体解析
func (p *TypePrinter) addGenericArgs(typ corapi.Type, sb *strings.Builder) {
	typeParams, err := typ.TypeParameters()
	if err != nil {
		return
	}
	isFirst := true
	for _, param := range typeParams {
		if isFirst {
			sb.WriteString("<")
		} else {
			sb.WriteString(",")
		}
		isFirst = false
		name, _ := p.GetTypeName(param)
		sb.WriteString(name)
		param.Release()
	}
	if !isFirst {
		sb.WriteString(">")
	}
}

// GetMethodName 获取栈帧对应的方法名称
// 格式为 外围类型+嵌套类型.方法名`泛型形参个数<绑定的泛型实参>()，参数列表不展示
func (p *TypePrinter) GetMethodName(frame corapi.Frame) (string, error) {
	function, err := frame.Function()
	if err != nil {
		return "", err
	}
	module, err := function.Module()
	if err != nil {
		return "", err
	}
	md, err := module.Metadata()
	if err != nil {
		return "", err
	}
	methodDef, err := function.Token()
	if err != nil {
		return "", err
	}
	props, err := md.MethodProps(methodDef)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if props.Class != corapi.NilToken {
		if className, cerr := p.NameForTypeDef(props.Class, md); cerr == nil {
			sb.WriteString(className)
			sb.WriteString(".")
		}
	}
	sb.WriteString(props.Name)

	// 方法自身是泛型方法时追加`N
	genericCount, err := md.CountGenericParams(methodDef)
	if err != nil {
		return "", err
	}
	if genericCount > 0 {
		sb.WriteString(fmt.Sprintf("`%d", genericCount))
	}

	// 栈帧上绑定的泛型类型实参
	if typeParams, terr := frame.EnumerateTypeParameters(); terr == nil {
		isFirst := true
		for _, param := range typeParams {
			if isFirst {
				sb.WriteString("<")
			} else {
				sb.WriteString(",")
			}
			isFirst = false
			name, _ := p.GetTypeName(param)
			sb.WriteString(name)
			param.Release()
		}
		if !isFirst {
			sb.WriteString(">")
		}
	}

	sb.WriteString("()")
	return sb.String(), nil
}
