package service

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fansqz/dotnet-debugger/constants"
	"github.com/fansqz/dotnet-debugger/debugger"
	"github.com/fansqz/dotnet-debugger/debugger/dotnet_debugger"
	"github.com/fansqz/dotnet-debugger/utils"
	"github.com/fansqz/dotnet-debugger/utils/gosync"
	"github.com/google/go-dap"
	"github.com/sirupsen/logrus"
)

// 会话空闲超时，期间没有任何请求就主动结束调试
const sessionIdleTimeout = 10 * time.Minute

// 作用域引用的换算和调试核心保持一致
var refUtil = dotnet_debugger.NewReferenceUtil()

// Serve 接收客户端连接，每个连接一个调试会话
// 调试器的attach和事件接线由调用方完成以后再传进来
func Serve(ctx context.Context, listener net.Listener, d debugger.Debugger) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			logrus.Errorf("[Service] Accept fail, err = %v", err)
			return err
		}
		session := NewDebugSession(conn, d)
		gosync.Go(ctx, func(ctx context.Context) {
			session.Serve(ctx)
		})
	}
}

// DebugSession 调试会话
// 把DAP请求翻译成调试器的检视操作，把调试事件翻译成DAP事件推给客户端
type DebugSession struct {
	conn net.Conn
	// rw is used to read requests and write events/responses
	rw *bufio.ReadWriter

	debugger debugger.Debugger

	// sendMutex 保证响应和事件不会交错写入连接
	sendMutex sync.Mutex

	// timeoutManager 会话空闲计时，超时结束调试
	timeoutManager *utils.TimeoutManager
	// idleTimedOut 计时器到期后不能再取消计时
	idleTimedOut atomic.Bool

	closeOnce sync.Once
}

func NewDebugSession(conn net.Conn, d debugger.Debugger) *DebugSession {
	return &DebugSession{
		conn:           conn,
		debugger:       d,
		rw:             bufio.NewReadWriter(bufio.NewReader(conn), bufio.NewWriter(conn)),
		timeoutManager: utils.NewTimeoutManager(),
	}
}

// Serve 处理会话中的所有请求，连接断开后返回
func (d *DebugSession) Serve(ctx context.Context) {
	d.timeoutManager.Start(ctx, sessionIdleTimeout, func() {
		logrus.Infof("[Service] session idle timeout")
		d.idleTimedOut.Store(true)
		_ = d.debugger.Terminate(ctx)
		d.close()
	})
	for {
		err := d.handleRequest(ctx)
		if err != nil {
			if err == io.EOF {
				logrus.Infof("[Service] no more data to read")
				break
			}
			logrus.Errorf("[Service] server error, err = %v", err)
			break
		}
	}
	if !d.idleTimedOut.Load() {
		d.timeoutManager.Chancel()
	}
	d.close()
}

func (d *DebugSession) close() {
	d.closeOnce.Do(func() {
		_ = d.conn.Close()
	})
}

func (d *DebugSession) handleRequest(ctx context.Context) error {
	request, err := dap.ReadProtocolMessage(d.rw.Reader)
	if err != nil {
		return err
	}
	if !d.idleTimedOut.Load() {
		d.timeoutManager.Reset()
	}
	d.dispatchRequest(ctx, request)
	return nil
}

func (d *DebugSession) dispatchRequest(ctx context.Context, request dap.Message) {
	switch request := request.(type) {
	case *dap.InitializeRequest:
		d.onInitializeRequest(request)
	case *dap.StackTraceRequest:
		d.onStackTraceRequest(ctx, request)
	case *dap.ScopesRequest:
		d.onScopesRequest(request)
	case *dap.VariablesRequest:
		d.onVariablesRequest(ctx, request)
	case *dap.TerminateRequest:
		d.onTerminateRequest(ctx, request)
	case *dap.DisconnectRequest:
		d.onDisconnectRequest(ctx, request)
	default:
		if baseReq, ok := request.(*dap.Request); ok {
			d.send(newErrorResponse(baseReq.Seq, baseReq.Command, fmt.Sprintf("%s is not yet supported", baseReq.Command)))
		}
	}
}

// send Message响应给客户端
func (d *DebugSession) send(message dap.Message) {
	d.sendMutex.Lock()
	defer d.sendMutex.Unlock()
	_ = dap.WriteProtocolMessage(d.rw.Writer, message)
	_ = d.rw.Flush()
}

// OnEvent 调试器事件回调，接到调试器的Callback上
func (d *DebugSession) OnEvent(event interface{}) {
	switch event := event.(type) {
	case *debugger.StoppedEvent:
		e := &dap.StoppedEvent{Event: *newEvent("stopped")}
		e.Body.Reason = string(event.Reason)
		e.Body.AllThreadsStopped = true
		d.send(e)
	case *debugger.ContinuedEvent:
		e := &dap.ContinuedEvent{Event: *newEvent("continued")}
		e.Body.AllThreadsContinued = true
		d.send(e)
	case *debugger.ExitedEvent:
		e := &dap.ExitedEvent{Event: *newEvent("exited")}
		e.Body.ExitCode = event.ExitCode
		d.send(e)
	case *debugger.OutputEvent:
		e := &dap.OutputEvent{Event: *newEvent("output")}
		e.Body.Category = "stdout"
		e.Body.Output = event.Output
		d.send(e)
	}
}

// -----------------------------------------------------------------------
// Request Handlers

func (d *DebugSession) onInitializeRequest(request *dap.InitializeRequest) {
	response := &dap.InitializeResponse{}
	response.Response = *newResponse(request.Seq, request.Command)
	response.Body.SupportsConfigurationDoneRequest = false
	response.Body.SupportsFunctionBreakpoints = false
	response.Body.SupportsConditionalBreakpoints = false
	response.Body.SupportsEvaluateForHovers = false
	response.Body.SupportsSetVariable = false
	response.Body.SupportsRestartRequest = false
	response.Body.SupportsTerminateRequest = true
	response.Body.SupportsDelayedStackTraceLoading = false
	e := &dap.InitializedEvent{Event: *newEvent("initialized")}
	d.send(e)
	d.send(response)
}

func (d *DebugSession) onStackTraceRequest(ctx context.Context, request *dap.StackTraceRequest) {
	stacktrace, err := d.debugger.GetStackTrace(ctx)
	if err != nil {
		d.send(newErrorResponse(request.Seq, request.Command, err.Error()))
		return
	}
	frames := make([]dap.StackFrame, len(stacktrace))
	for i, frame := range stacktrace {
		id, _ := strconv.Atoi(frame.ID)
		frames[i] = dap.StackFrame{
			Id:   id,
			Name: frame.Name,
		}
	}
	response := &dap.StackTraceResponse{}
	response.Response = *newResponse(request.Seq, request.Command)
	response.Body = dap.StackTraceResponseBody{
		StackFrames: frames,
		TotalFrames: len(frames),
	}
	d.send(response)
}

func (d *DebugSession) onScopesRequest(request *dap.ScopesRequest) {
	response := &dap.ScopesResponse{}
	response.Response = *newResponse(request.Seq, request.Command)
	response.Body = dap.ScopesResponseBody{
		Scopes: []dap.Scope{
			{
				Name:               string(constants.ScopeLocal),
				VariablesReference: refUtil.GetScopesReference(request.Arguments.FrameId),
			},
		},
	}
	d.send(response)
}

func (d *DebugSession) onVariablesRequest(ctx context.Context, request *dap.VariablesRequest) {
	variables, err := d.debugger.GetVariables(ctx, strconv.Itoa(request.Arguments.VariablesReference))
	if err != nil {
		d.send(newErrorResponse(request.Seq, request.Command, err.Error()))
		return
	}
	answer := make([]dap.Variable, len(variables))
	for i, variable := range variables {
		reference := 0
		if variable.Reference != "" {
			reference, _ = strconv.Atoi(variable.Reference)
		}
		value := ""
		if variable.Unavailable {
			value = "<unavailable>"
		}
		answer[i] = dap.Variable{
			Name:               variable.Name,
			Value:              value,
			Type:               variable.Type,
			VariablesReference: reference,
		}
	}
	response := &dap.VariablesResponse{}
	response.Response = *newResponse(request.Seq, request.Command)
	response.Body = dap.VariablesResponseBody{
		Variables: answer,
	}
	d.send(response)
}

func (d *DebugSession) onTerminateRequest(ctx context.Context, request *dap.TerminateRequest) {
	if err := d.debugger.Terminate(ctx); err != nil {
		d.send(newErrorResponse(request.Seq, request.Command, err.Error()))
		return
	}
	response := &dap.TerminateResponse{}
	response.Response = *newResponse(request.Seq, request.Command)
	d.send(response)
}

func (d *DebugSession) onDisconnectRequest(ctx context.Context, request *dap.DisconnectRequest) {
	_ = d.debugger.Terminate(ctx)
	response := &dap.DisconnectResponse{}
	response.Response = *newResponse(request.Seq, request.Command)
	d.send(response)
	d.close()
}

func newEvent(event string) *dap.Event {
	return &dap.Event{
		ProtocolMessage: dap.ProtocolMessage{
			Seq:  0,
			Type: "event",
		},
		Event: event,
	}
}

func newResponse(requestSeq int, command string) *dap.Response {
	return &dap.Response{
		ProtocolMessage: dap.ProtocolMessage{
			Seq:  0,
			Type: "response",
		},
		Command:    command,
		RequestSeq: requestSeq,
		Success:    true,
	}
}

func newErrorResponse(requestSeq int, command string, message string) *dap.ErrorResponse {
	er := &dap.ErrorResponse{}
	er.Response = *newResponse(requestSeq, command)
	er.Success = false
	er.Body.Error = &dap.ErrorMessage{}
	er.Body.Error.Format = message
	er.Body.Error.Id = 12345
	return er
}
