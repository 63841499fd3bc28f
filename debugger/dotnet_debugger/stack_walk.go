package dotnet_debugger

import (
	"fmt"
	"strings"

	"github.com/fansqz/dotnet-debugger/constants"
	"github.com/fansqz/dotnet-debugger/debugger/dotnet_debugger/corapi"
)

// StackVarVisitor 栈帧变量访问回调，返回错误会中断整个遍历
type StackVarVisitor func(name string, value corapi.Value) error

// StackWalker 栈帧变量遍历工具
// 按参数、局部变量的顺序枚举栈帧中可见的变量，并对编译器改写的
// 闭包捕获结构做平铺，让捕获的变量重新以顶层变量的形式出现
type StackWalker struct {
	printer     *TypePrinter
	valueWalker *ValueWalker
	scopeSource corapi.ScopeSource
}

func NewStackWalker(printer *TypePrinter, valueWalker *ValueWalker, scopeSource corapi.ScopeSource) *StackWalker {
	return &StackWalker{
		printer:     printer,
		valueWalker: valueWalker,
		scopeSource: scopeSource,
	}
}

// WalkStackVariables 遍历栈帧中的参数和当前IL偏移上可见的局部变量
// 单个变量值读取失败会跳过，枚举器本身获取失败则中断整个调用
func (w *StackWalker) WalkStackVariables(frame corapi.Frame, cb StackVarVisitor) error {
	function, err := frame.Function()
	if err != nil {
		return err
	}
	module, err := function.Module()
	if err != nil {
		return err
	}
	md, err := module.Metadata()
	if err != nil {
		return err
	}
	methodDef, err := function.Token()
	if err != nil {
		return err
	}

	paramEnum, err := frame.EnumerateArguments()
	if err != nil {
		return err
	}
	cParams, err := paramEnum.Count()
	if err != nil {
		return err
	}

	if cParams > 0 {
		methodProps, merr := md.MethodProps(methodDef)
		if merr != nil {
			return merr
		}
		isStaticMethod := methodProps.Attr&constants.MethodAttrStatic != 0

		for i := 0; i < cParams; i++ {
			// 实例方法的第0个参数是this
			thisParam := i == 0 && !isStaticMethod
			var paramName string
			if thisParam {
				paramName = "this"
			} else {
				// 实例方法有隐式this，参数下标需要整体左移一位
				idx := i
				if isStaticMethod {
					idx = i + 1
				}
				if paramDef, perr := md.ParamForMethodIndex(methodDef, idx); perr == nil {
					if props, perr := md.ParamProps(paramDef); perr == nil {
						paramName = props.Name
					}
				}
			}
			if paramName == "" {
				paramName = fmt.Sprintf("param_%d", i)
			}

			value, ok, nerr := paramEnum.Next()
			if nerr != nil {
				// 单个参数读取失败跳过
				continue
			}
			if !ok {
				break
			}

			if thisParam {
				handled, herr := w.handleClosureThis(value, frame, cb)
				if herr != nil {
					return herr
				}
				if handled {
					continue
				}
			}
			if err = cb(paramName, value); err != nil {
				return err
			}
		}
	}

	currentIP, err := frame.IP()
	if err != nil {
		return err
	}
	localsEnum, err := frame.EnumerateLocalVariables()
	if err != nil {
		return err
	}
	cLocals, err := localsEnum.Count()
	if err != nil {
		return err
	}
	for i := 0; i < cLocals; i++ {
		local, lerr := w.scopeSource.NamedLocalVariable(frame, methodDef, i)
		if lerr != nil {
			// 单个局部变量信息读取失败跳过
			continue
		}
		if local == nil {
			break
		}
		// 只访问有效区间覆盖当前IL偏移的局部变量
		if currentIP < local.StartIL || currentIP >= local.EndIL {
			if local.Value != nil {
				local.Value.Release()
			}
			continue
		}

		handled, herr := w.handleCapturedLocal(local.Name, local.Value, frame, cb)
		if herr != nil {
			return herr
		}
		if handled {
			continue
		}
		if err = cb(local.Name, local.Value); err != nil {
			return err
		}
	}
	return nil
}

// handleCapturedLocal 处理被闭包捕获后提升的局部变量容器
// 名称以捕获前缀开头的变量本身不展示，用它的成员原位替换，
// 成员里再出现捕获容器时继续平铺，跨嵌套层级组合
func (w *StackWalker) handleCapturedLocal(name string, value corapi.Value, frame corapi.Frame, cb StackVarVisitor) (bool, error) {
	if !strings.HasPrefix(name, constants.CapturedLocalPrefix) {
		return false, nil
	}
	// 容器本身读不到值时按单项失败跳过，不中断整个遍历
	if value == nil {
		return true, nil
	}
	err := w.valueWalker.WalkMembers(value, frame, func(member *Member) error {
		handled, herr := w.handleCapturedLocal(member.Name, member.Value, frame, cb)
		if herr != nil {
			return herr
		}
		if handled {
			return nil
		}
		return cb(member.Name, member.Value)
	})
	value.Release()
	if err != nil {
		return true, err
	}
	return true, nil
}

// handleClosureThis 处理编译器合成类型的this参数
// this的类型简单名称以闭包容器前缀开头时，用容器的成员替换this本身；
// 以静态lambda容器前缀开头（但不是闭包容器）时直接隐藏；其他this正常展示
func (w *StackWalker) handleClosureThis(thisValue corapi.Value, frame corapi.Frame, cb StackVarVisitor) (bool, error) {
	typeName := w.printer.GetTypeNameOfValue(thisValue)

	// 取简单名称：去掉命名空间和外围类型前缀
	if start := strings.LastIndexAny(typeName, ".+"); start >= 0 {
		typeName = typeName[start+1:]
	}

	if !strings.HasPrefix(typeName, constants.HideClassPrefix) {
		return false, nil
	}
	if !strings.HasPrefix(typeName, constants.DisplayClassPrefix) {
		// 静态lambda容器的this不展示
		thisValue.Release()
		return true, nil
	}

	// 闭包容器：捕获的状态以顶层变量的形式重新出现
	// 读取容器字段不需要栈帧上下文
	err := w.valueWalker.WalkMembers(thisValue, nil, func(member *Member) error {
		handled, herr := w.handleCapturedLocal(member.Name, member.Value, frame, cb)
		if herr != nil {
			return herr
		}
		if handled {
			return nil
		}
		name := member.Name
		if name == "" {
			name = "this"
		}
		return cb(name, member.Value)
	})
	thisValue.Release()
	if err != nil {
		return true, err
	}
	return true, nil
}
