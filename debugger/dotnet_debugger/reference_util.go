package dotnet_debugger

import (
	"sync"

	"github.com/fansqz/dotnet-debugger/debugger/dotnet_debugger/corapi"
	e "github.com/fansqz/dotnet-debugger/error"
)

const (
	// localScopeBase 作用域引用的区间起点，作用域引用 = localScopeBase + 栈帧id
	localScopeBase = 1002
	// variableReferenceBase 变量引用从这里开始分配
	variableReferenceBase = 1100
)

// ReferenceStruct 定义的引用结构体，记录可展开的值和它来源的栈帧
type ReferenceStruct struct {
	Value corapi.Value
	// Frame 值来源的栈帧，展开成员时读取静态字段需要
	Frame corapi.Frame
}

// ReferenceUtil 引用工具类
// 变量引用只在一次停止期间有效，程序恢复执行以后全部失效并释放值句柄
type ReferenceUtil struct {
	mutex   sync.RWMutex
	nextRef int
	refs    map[int]*ReferenceStruct
}

func NewReferenceUtil() *ReferenceUtil {
	return &ReferenceUtil{
		nextRef: variableReferenceBase,
		refs:    map[int]*ReferenceStruct{},
	}
}

// GetScopesReference 根据栈帧获取ScopeId
func (r *ReferenceUtil) GetScopesReference(frameId int) int {
	return localScopeBase + frameId
}

// CheckIsLocalScope 判断是否是局部作用域引用
func (r *ReferenceUtil) CheckIsLocalScope(reference int) bool {
	return reference >= localScopeBase && reference < variableReferenceBase
}

// GetFrameIDByLocalReference 获取栈帧id
func (r *ReferenceUtil) GetFrameIDByLocalReference(reference int) int {
	return reference - localScopeBase
}

// CreateVariableReference 创建引用
func (r *ReferenceUtil) CreateVariableReference(refStruct *ReferenceStruct) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	intRef := r.nextRef
	r.nextRef++
	r.refs[intRef] = refStruct
	return intRef
}

// ParseVariableReference 解析引用
func (r *ReferenceUtil) ParseVariableReference(reference int) (*ReferenceStruct, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	refStruct, ok := r.refs[reference]
	if !ok {
		return nil, e.ErrReferenceNotFound
	}
	return refStruct, nil
}

// InvalidateAll 程序恢复执行时调用，释放所有被引用的值句柄
func (r *ReferenceUtil) InvalidateAll() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, refStruct := range r.refs {
		if refStruct.Value != nil {
			refStruct.Value.Release()
		}
	}
	r.refs = map[int]*ReferenceStruct{}
	r.nextRef = variableReferenceBase
}
