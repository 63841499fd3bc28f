package dotnet_debugger

import (
	"fmt"
	"testing"

	"github.com/fansqz/dotnet-debugger/constants"
	"github.com/fansqz/dotnet-debugger/debugger/dotnet_debugger/corapi"
	"github.com/stretchr/testify/assert"
)

// newEvalThread 构造一个求值线程，恢复执行时异步触发完成通知
func newEvalThread(evaluator *Evaluator, results ...corapi.Value) (*fakeThread, *fakeProcess) {
	process := &fakeProcess{}
	process.onContinue = func() {
		go evaluator.NotifyEvalComplete()
	}
	thread := &fakeThread{process: process, nextResults: results}
	return thread, process
}

// TestCallFunction 测试完整的求值协议：提交、恢复执行、等待完成、取回结果
func TestCallFunction(t *testing.T) {
	evaluator := NewEvaluator()
	result := &fakeValue{elem: constants.ElementTypeString, exact: stringType()}
	thread, process := newEvalThread(evaluator, result)
	fn := &fakeFunction{token: corapi.Token(constants.TokenKindMethodDef | 1)}
	arg := &fakeValue{elem: constants.ElementTypeI4, exact: intType()}

	value, err := evaluator.CallFunction(thread, fn, nil, arg)
	assert.NoError(t, err)
	assert.Equal(t, result, value)
	assert.Equal(t, 1, process.continueCount)
	assert.True(t, thread.eval.submitted)
	assert.Equal(t, fn, thread.eval.fn)
	assert.Equal(t, []corapi.Value{arg}, thread.eval.args)
}

// TestCallFunction_NoArg 没有参数时不传参数列表
func TestCallFunction_NoArg(t *testing.T) {
	evaluator := NewEvaluator()
	result := &fakeValue{elem: constants.ElementTypeI4, exact: intType()}
	thread, _ := newEvalThread(evaluator, result)
	fn := &fakeFunction{token: corapi.Token(constants.TokenKindMethodDef | 1)}

	value, err := evaluator.CallFunction(thread, fn, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, result, value)
	assert.Empty(t, thread.eval.args)
}

// TestCallFunction_TypeArgs 泛型实参从类型自身的类型实参展开
func TestCallFunction_TypeArgs(t *testing.T) {
	evaluator := NewEvaluator()
	result := &fakeValue{elem: constants.ElementTypeI4, exact: intType()}
	thread, _ := newEvalThread(evaluator, result)
	fn := &fakeFunction{token: corapi.Token(constants.TokenKindMethodDef | 1)}

	typeArg := intType()
	typ := &fakeType{elem: constants.ElementTypeClass, typeParams: []corapi.Type{typeArg}}

	_, err := evaluator.CallFunction(thread, fn, typ, nil)
	assert.NoError(t, err)
	assert.Equal(t, []corapi.Type{typeArg}, thread.eval.typeArgs)
	// 类型实参用完以后释放
	assert.Equal(t, 1, typeArg.releases)
}

// TestCallFunction_SubmitFail 提交失败时不恢复执行也不等待
func TestCallFunction_SubmitFail(t *testing.T) {
	evaluator := NewEvaluator()
	process := &fakeProcess{}
	thread := &fakeThread{process: process, submitErr: fmt.Errorf("cannot submit")}
	fn := &fakeFunction{token: corapi.Token(constants.TokenKindMethodDef | 1)}

	_, err := evaluator.CallFunction(thread, fn, nil, nil)
	assert.Error(t, err)
	assert.Equal(t, 0, process.continueCount)
	assert.False(t, thread.eval.submitted)
}

// TestCallFunction_Sequential 连续两次求值各自取到新结果，完成标志每次重新清零
func TestCallFunction_Sequential(t *testing.T) {
	evaluator := NewEvaluator()
	first := &fakeValue{elem: constants.ElementTypeI4, exact: intType()}
	second := &fakeValue{elem: constants.ElementTypeString, exact: stringType()}
	thread, process := newEvalThread(evaluator, first, second)
	fn := &fakeFunction{token: corapi.Token(constants.TokenKindMethodDef | 1)}

	value, err := evaluator.CallFunction(thread, fn, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, first, value)

	value, err = evaluator.CallFunction(thread, fn, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, second, value)
	assert.Equal(t, 2, process.continueCount)
}

// TestNewObjectNoConstructor 测试不执行构造函数的对象分配
func TestNewObjectNoConstructor(t *testing.T) {
	evaluator := NewEvaluator()
	result := &fakeValue{elem: constants.ElementTypeClass}
	thread, process := newEvalThread(evaluator, result)

	md := newFakeMetadata()
	typ := newClassType(md, corapi.Token(constants.TokenKindTypeDef|2), "Person", 0)

	value, err := evaluator.NewObjectNoConstructor(thread, typ)
	assert.NoError(t, err)
	assert.Equal(t, result, value)
	assert.Equal(t, 1, process.continueCount)
	assert.Equal(t, typ.class, thread.eval.class)
}
