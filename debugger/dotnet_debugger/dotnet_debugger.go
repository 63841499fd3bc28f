package dotnet_debugger

import (
	"context"
	"strconv"
	"sync"

	"github.com/fansqz/dotnet-debugger/constants"
	. "github.com/fansqz/dotnet-debugger/debugger"
	"github.com/fansqz/dotnet-debugger/debugger/dotnet_debugger/corapi"
	e "github.com/fansqz/dotnet-debugger/error"
	"github.com/fansqz/dotnet-debugger/utils"
	"github.com/sirupsen/logrus"
)

// Option 启动调试核心的参数
type Option struct {
	// ScopeSource 符号层提供的局部变量作用域查询接口
	ScopeSource corapi.ScopeSource
	// Callback 事件回调
	Callback NotificationCallback
}

// DotnetDebugger 托管运行时调试核心
// 把运行时调试接口的原始能力组合成栈帧、变量、成员的检视操作和进程内求值。
// 进程的attach/launch、断点和单步控制由外部控制层负责，控制层通过Handle系列
// 方法把停止/继续/求值完成等事件喂给这里。
type DotnetDebugger struct {
	option *Option

	// 事件产生时，触发该回调
	callback NotificationCallback

	// statusManager 调试的状态管理
	statusManager *utils.StatusManager

	// 类型名称解析、成员遍历、栈帧遍历工具
	printer     *TypePrinter
	valueWalker *ValueWalker
	stackWalker *StackWalker

	// evaluator 进程内求值
	evaluator *Evaluator
	// evalMutex 求值串行化，完成标志是进程级的单个标志位，不允许重叠求值
	evalMutex sync.Mutex

	// referenceUtil 变量引用表
	referenceUtil *ReferenceUtil

	// sessionId 本次调试会话的标识，只用于日志
	sessionId string

	mutex         sync.RWMutex
	currentThread corapi.Thread
}

func NewDotnetDebugger() *DotnetDebugger {
	printer := NewTypePrinter()
	d := &DotnetDebugger{
		statusManager: utils.NewStatusManager(),
		printer:       printer,
		valueWalker:   NewValueWalker(printer),
		evaluator:     NewEvaluator(),
		referenceUtil: NewReferenceUtil(),
		sessionId:     utils.GetUUID(),
	}
	return d
}

func (d *DotnetDebugger) Start(ctx context.Context, option *Option) error {
	logrus.Infof("[DotnetDebugger] Start, session = %s", d.sessionId)
	d.option = option
	d.callback = option.Callback
	d.stackWalker = NewStackWalker(d.printer, d.valueWalker, option.ScopeSource)
	return nil
}

// HandleStopped 外部控制层在被调试进程停止时调用，thread是触发停止的线程
func (d *DotnetDebugger) HandleStopped(thread corapi.Thread, reason constants.StoppedReasonType) {
	d.mutex.Lock()
	d.currentThread = thread
	d.mutex.Unlock()
	d.statusManager.Set(utils.Stopped)
	if d.callback != nil {
		d.callback(NewStoppedEvent(reason))
	}
}

// HandleContinued 外部控制层在被调试进程恢复执行时调用
// 变量引用随之全部失效
func (d *DotnetDebugger) HandleContinued() {
	d.referenceUtil.InvalidateAll()
	d.statusManager.Set(utils.Running)
	if d.callback != nil {
		d.callback(NewContinuedEvent())
	}
}

// HandleExited 被调试进程退出
func (d *DotnetDebugger) HandleExited(code int) {
	d.referenceUtil.InvalidateAll()
	d.statusManager.Set(utils.Finish)
	if d.callback != nil {
		d.callback(NewExitedEvent(code, ""))
	}
}

// HandleEvalComplete 求值完成事件，转发给evaluator唤醒等待中的调用
// 每次未完成的求值恰好触发一次
func (d *DotnetDebugger) HandleEvalComplete() {
	d.evaluator.NotifyEvalComplete()
}

func (d *DotnetDebugger) GetStackTrace(ctx context.Context) ([]*StackFrame, error) {
	logrus.Infof("[DotnetDebugger] GetStackTrace")
	if !d.statusManager.Is(utils.Stopped) {
		return nil, e.ErrProgramIsRunningOptionFail
	}
	thread := d.stoppedThread()
	if thread == nil {
		return nil, e.ErrDebuggerIsClosed
	}
	frames, err := thread.Frames()
	if err != nil {
		return nil, err
	}
	answer := make([]*StackFrame, len(frames))
	for i, frame := range frames {
		// 方法名解析失败只影响这一帧的名称
		name, nerr := d.printer.GetMethodName(frame)
		if nerr != nil {
			logrus.Errorf("[DotnetDebugger] GetMethodName fail, err = %v", nerr)
			name = ""
		}
		answer[i] = &StackFrame{
			ID:   strconv.Itoa(i),
			Name: name,
		}
	}
	return answer, nil
}

func (d *DotnetDebugger) GetFrameVariables(ctx context.Context, frameId string) ([]*Variable, error) {
	logrus.Infof("[DotnetDebugger] GetFrameVariables")
	if !d.statusManager.Is(utils.Stopped) {
		return nil, e.ErrProgramIsRunningOptionFail
	}
	frame, err := d.frameByID(frameId)
	if err != nil {
		return nil, err
	}
	answer := []*Variable{} // must return empty array, not null, if no children
	err = d.stackWalker.WalkStackVariables(frame, func(name string, value corapi.Value) error {
		answer = append(answer, d.convertValue(name, "", false, value, frame))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return answer, nil
}

func (d *DotnetDebugger) GetVariables(ctx context.Context, reference string) ([]*Variable, error) {
	logrus.Infof("[DotnetDebugger] GetVariables")
	if !d.statusManager.Is(utils.Stopped) {
		return nil, e.ErrProgramIsRunningOptionFail
	}
	ref, err := strconv.Atoi(reference)
	if err != nil {
		return nil, e.ErrReferenceNotFound
	}
	// 作用域引用走栈帧变量
	if d.referenceUtil.CheckIsLocalScope(ref) {
		return d.GetFrameVariables(ctx, strconv.Itoa(d.referenceUtil.GetFrameIDByLocalReference(ref)))
	}
	refStruct, err := d.referenceUtil.ParseVariableReference(ref)
	if err != nil {
		return nil, err
	}
	answer := []*Variable{} // must return empty array, not null, if no children
	err = d.valueWalker.WalkMembers(refStruct.Value, refStruct.Frame, func(member *Member) error {
		answer = append(answer, d.convertMember(member, refStruct.Frame))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return answer, nil
}

// CallFunction 在被调试进程中同步调用函数并返回结果值
// 同一时刻只允许一个求值请求，重叠请求直接拒绝
func (d *DotnetDebugger) CallFunction(ctx context.Context, fn corapi.Function, typ corapi.Type, arg corapi.Value) (corapi.Value, error) {
	logrus.Infof("[DotnetDebugger] CallFunction")
	if !d.statusManager.Is(utils.Stopped) {
		return nil, e.ErrProgramIsRunningOptionFail
	}
	if !d.evalMutex.TryLock() {
		return nil, e.ErrEvalInProgress
	}
	defer d.evalMutex.Unlock()
	thread := d.stoppedThread()
	if thread == nil {
		return nil, e.ErrDebuggerIsClosed
	}
	return d.evaluator.CallFunction(thread, fn, typ, arg)
}

// NewObjectNoConstructor 在被调试进程中分配一个不执行构造函数的新对象
func (d *DotnetDebugger) NewObjectNoConstructor(ctx context.Context, typ corapi.Type) (corapi.Value, error) {
	logrus.Infof("[DotnetDebugger] NewObjectNoConstructor")
	if !d.statusManager.Is(utils.Stopped) {
		return nil, e.ErrProgramIsRunningOptionFail
	}
	if !d.evalMutex.TryLock() {
		return nil, e.ErrEvalInProgress
	}
	defer d.evalMutex.Unlock()
	thread := d.stoppedThread()
	if thread == nil {
		return nil, e.ErrDebuggerIsClosed
	}
	return d.evaluator.NewObjectNoConstructor(thread, typ)
}

func (d *DotnetDebugger) Terminate(ctx context.Context) error {
	logrus.Infof("[DotnetDebugger] Terminate")
	if d.statusManager.Is(utils.Finish) {
		return nil
	}
	d.referenceUtil.InvalidateAll()
	d.mutex.Lock()
	d.currentThread = nil
	d.mutex.Unlock()
	d.statusManager.Set(utils.Finish)
	return nil
}

func (d *DotnetDebugger) stoppedThread() corapi.Thread {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.currentThread
}

// frameByID 根据栈帧id获取栈帧
func (d *DotnetDebugger) frameByID(frameId string) (corapi.Frame, error) {
	id, err := strconv.Atoi(frameId)
	if err != nil {
		return nil, e.ErrFrameNotFound
	}
	thread := d.stoppedThread()
	if thread == nil {
		return nil, e.ErrDebuggerIsClosed
	}
	frames, err := thread.Frames()
	if err != nil {
		return nil, err
	}
	if id < 0 || id >= len(frames) {
		return nil, e.ErrFrameNotFound
	}
	return frames[id], nil
}

// convertValue 把一个运行时值转成变量，复合类型的值创建展开引用
// 值句柄交给引用表保管，不可展开的值直接释放
func (d *DotnetDebugger) convertValue(name string, kind string, isStatic bool, value corapi.Value, frame corapi.Frame) *Variable {
	variable := &Variable{
		Name:     name,
		Kind:     kind,
		IsStatic: isStatic,
	}
	if value == nil {
		variable.Unavailable = true
		return variable
	}
	variable.Type = d.printer.GetTypeNameOfValue(value)
	if d.hasChildren(value) {
		ref := d.referenceUtil.CreateVariableReference(&ReferenceStruct{Value: value, Frame: frame})
		variable.Reference = strconv.Itoa(ref)
	} else {
		value.Release()
	}
	return variable
}

// convertMember 把成员遍历的产出转成变量
// 属性成员不会触发getter调用，只按名称展示
func (d *DotnetDebugger) convertMember(member *Member, frame corapi.Frame) *Variable {
	if member.Kind == MemberKindProperty {
		return &Variable{
			Name:     member.Name,
			Kind:     string(member.Kind),
			IsStatic: member.IsStatic,
		}
	}
	if member.Unavailable {
		return &Variable{
			Name:        member.Name,
			Kind:        string(member.Kind),
			IsStatic:    member.IsStatic,
			Unavailable: true,
		}
	}
	return d.convertValue(member.Name, string(member.Kind), member.IsStatic, member.Value, frame)
}

// hasChildren 判断值是否还有可展开的成员
func (d *DotnetDebugger) hasChildren(value corapi.Value) bool {
	elemType, err := value.ElementType()
	if err != nil {
		return false
	}
	switch elemType {
	case constants.ElementTypeClass, constants.ElementTypeValueType,
		constants.ElementTypeArray, constants.ElementTypeSZArray,
		constants.ElementTypeGenericInst, constants.ElementTypeObject:
		return true
	}
	return false
}
