package service

import (
	"context"
	"math"
	"strconv"

	"wheel/internal/biz/lottery"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/transport/http"
)

const (
	OperationWheelServiceDraw          = "/wheel.v1.WheelService/Draw"
	OperationWheelServiceStatus        = "/wheel.v1.WheelService/Status"
	OperationWheelServiceReset         = "/wheel.v1.WheelService/Reset"
	OperationWheelServiceAdminInfo     = "/wheel.v1.WheelService/AdminInfo"
	OperationWheelServiceSpin          = "/wheel.v1.WheelService/Spin"
	OperationWheelServiceWheel         = "/wheel.v1.WheelService/Wheel"
	OperationWheelServiceResult        = "/wheel.v1.WheelService/Result"
	OperationWheelServiceDismissResult = "/wheel.v1.WheelService/DismissResult"
	OperationWheelServiceRenderPNG     = "/wheel.v1.WheelService/RenderPNG"
	OperationWheelServiceRecording     = "/wheel.v1.WheelService/Recording"
)

// RegisterWheelServiceHTTPServer 注册路由
func RegisterWheelServiceHTTPServer(s *http.Server, srv *WheelService) {
	r := s.Route("/")
	r.POST("/api/draw", _WheelService_Draw0_HTTP_Handler(srv))
	r.GET("/api/status", _WheelService_Status0_HTTP_Handler(srv))
	r.POST("/api/reset", _WheelService_Reset0_HTTP_Handler(srv))
	r.GET("/api/admin/info", _WheelService_AdminInfo0_HTTP_Handler(srv))
	r.POST("/api/spin", _WheelService_Spin0_HTTP_Handler(srv))
	r.GET("/api/wheel", _WheelService_Wheel0_HTTP_Handler(srv))
	r.GET("/api/result", _WheelService_Result0_HTTP_Handler(srv))
	r.POST("/api/result/dismiss", _WheelService_DismissResult0_HTTP_Handler(srv))
	r.GET("/api/wheel.png", _WheelService_RenderPNG0_HTTP_Handler(srv))
	r.GET("/api/spin/record.gif", _WheelService_Recording0_HTTP_Handler(srv))
}

// jsonHandler 无参数、返回 JSON 的通用处理
func jsonHandler[T any](operation string, call func(context.Context, *Empty) (*T, error)) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in Empty
		http.SetOperation(ctx, operation)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(ctx, req.(*Empty))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		reply := out.(*T)
		return ctx.Result(200, reply)
	}
}

func _WheelService_Draw0_HTTP_Handler(srv *WheelService) func(ctx http.Context) error {
	return jsonHandler(OperationWheelServiceDraw, srv.Draw)
}

func _WheelService_Status0_HTTP_Handler(srv *WheelService) func(ctx http.Context) error {
	return jsonHandler(OperationWheelServiceStatus, srv.Status)
}

// 重置失败时与原接口一致：500 + {success:false,message:"重置失败"}
func _WheelService_Reset0_HTTP_Handler(srv *WheelService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in Empty
		http.SetOperation(ctx, OperationWheelServiceReset)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Reset(ctx, req.(*Empty))
		})
		out, err := h(ctx, &in)
		if err != nil {
			if errors.Is(err, lottery.ErrResetFailed) {
				return ctx.Result(500, &lottery.ResetReply{Success: false, Message: lottery.ErrResetFailed.Message})
			}
			return err
		}
		reply := out.(*lottery.ResetReply)
		return ctx.Result(200, reply)
	}
}

func _WheelService_AdminInfo0_HTTP_Handler(srv *WheelService) func(ctx http.Context) error {
	return jsonHandler(OperationWheelServiceAdminInfo, srv.AdminInfo)
}

func _WheelService_Spin0_HTTP_Handler(srv *WheelService) func(ctx http.Context) error {
	return jsonHandler(OperationWheelServiceSpin, srv.Spin)
}

func _WheelService_Wheel0_HTTP_Handler(srv *WheelService) func(ctx http.Context) error {
	return jsonHandler(OperationWheelServiceWheel, srv.Wheel)
}

func _WheelService_Result0_HTTP_Handler(srv *WheelService) func(ctx http.Context) error {
	return jsonHandler(OperationWheelServiceResult, srv.Result)
}

func _WheelService_DismissResult0_HTTP_Handler(srv *WheelService) func(ctx http.Context) error {
	return jsonHandler(OperationWheelServiceDismissResult, srv.DismissResult)
}

func _WheelService_RenderPNG0_HTTP_Handler(srv *WheelService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in RenderRequest
		if v := ctx.Query().Get("rotation"); v != "" {
			rot, err := strconv.ParseFloat(v, 64)
			if err != nil || math.IsNaN(rot) || math.IsInf(rot, 0) {
				return errors.BadRequest("INVALID_ROTATION", "rotation must be a finite number in radians")
			}
			in.Rotation = &rot
		}
		http.SetOperation(ctx, OperationWheelServiceRenderPNG)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.RenderPNG(ctx, req.(*RenderRequest))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Blob(200, "image/png", out.([]byte))
	}
}

func _WheelService_Recording0_HTTP_Handler(srv *WheelService) func(ctx http.Context) error {
	return func(ctx http.Context) error {
		var in Empty
		http.SetOperation(ctx, OperationWheelServiceRecording)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return srv.Recording(ctx, req.(*Empty))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		return ctx.Blob(200, "image/gif", out.([]byte))
	}
}
