package dotnet_debugger

import (
	"sync"

	"github.com/fansqz/dotnet-debugger/debugger/dotnet_debugger/corapi"
	"github.com/sirupsen/logrus"
)

// Evaluator 向暂停中的被调试进程发起函数调用/对象分配，并同步等待结果
//
// 完成信号是进程级的单个标志位：提交求值、恢复整个进程执行、阻塞等待外部
// 事件源调用NotifyEvalComplete，然后取回结果。同一个进程同一时刻只允许一个
// 未完成的求值，并发请求会破坏标志位的含义，串行化是调用方的责任，这里不做
// 排队。求值没有超时，被调试进程无响应时调用会一直阻塞。
type Evaluator struct {
	mutex        sync.Mutex
	cond         *sync.Cond
	evalComplete bool
}

func NewEvaluator() *Evaluator {
	e := &Evaluator{}
	e.cond = sync.NewCond(&e.mutex)
	return e
}

// NotifyEvalComplete 求值完成的通知入口
// 由外部的调试事件回调触发，每次未完成的求值恰好调用一次
func (e *Evaluator) NotifyEvalComplete() {
	e.mutex.Lock()
	e.evalComplete = true
	e.mutex.Unlock()
	e.cond.Signal()
}

// waitEvalResult 恢复进程执行并阻塞等待完成信号，然后取回求值结果
// 标志位的清空和恢复执行在同一把锁内完成，完成信号不会在两者之间丢失
func (e *Evaluator) waitEvalResult(process corapi.Process, eval corapi.Eval) (corapi.Value, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.evalComplete = false
	if err := process.Continue(); err != nil {
		return nil, err
	}
	for !e.evalComplete {
		e.cond.Wait()
	}
	return eval.Result()
}

// CallFunction 在线程上调用函数并同步等待结果
// typ不为nil时，调用的泛型实参从typ自身的类型实参展开（包含外层泛型实例化
// 携带的实参）；argValue最多一个，可以为nil。被调试程序求值过程中抛出的
// 异常同样作为结果值返回，区分它是调用方的责任。
func (e *Evaluator) CallFunction(thread corapi.Thread, fn corapi.Function, typ corapi.Type, argValue corapi.Value) (corapi.Value, error) {
	logrus.Infof("[Evaluator] CallFunction")
	process, err := thread.Process()
	if err != nil {
		return nil, err
	}
	eval, err := thread.CreateEval()
	if err != nil {
		return nil, err
	}

	var typeParams []corapi.Type
	if typ != nil {
		if params, perr := typ.TypeParameters(); perr == nil {
			typeParams = params
		}
	}
	defer releaseTypes(typeParams)

	var args []corapi.Value
	if argValue != nil {
		args = []corapi.Value{argValue}
	}

	// 提交失败直接返回，不恢复执行也不阻塞等待
	if err = eval.CallParameterizedFunction(fn, typeParams, args); err != nil {
		logrus.Errorf("[Evaluator] CallFunction submit fail, err = %v", err)
		return nil, err
	}
	return e.waitEvalResult(process, eval)
}

// NewObjectNoConstructor 分配一个不执行任何构造函数的新对象，协议同CallFunction
func (e *Evaluator) NewObjectNoConstructor(thread corapi.Thread, typ corapi.Type) (corapi.Value, error) {
	logrus.Infof("[Evaluator] NewObjectNoConstructor")
	process, err := thread.Process()
	if err != nil {
		return nil, err
	}
	eval, err := thread.CreateEval()
	if err != nil {
		return nil, err
	}

	class, err := typ.Class()
	if err != nil {
		return nil, err
	}
	var typeParams []corapi.Type
	if params, perr := typ.TypeParameters(); perr == nil {
		typeParams = params
	}
	defer releaseTypes(typeParams)

	if err = eval.NewParameterizedObjectNoConstructor(class, typeParams); err != nil {
		logrus.Errorf("[Evaluator] NewObjectNoConstructor submit fail, err = %v", err)
		return nil, err
	}
	return e.waitEvalResult(process, eval)
}

func releaseTypes(types []corapi.Type) {
	for _, t := range types {
		t.Release()
	}
}
