package auth

import (
	"context"
	"testing"

	"campus_chat_server/internal/dao/memstore"
	"campus_chat_server/internal/dto/request"
	"campus_chat_server/pkg/errorx"
	"campus_chat_server/pkg/util/jwt"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newService(t *testing.T) *Service {
	t.Helper()
	zap.ReplaceGlobals(zaptest.NewLogger(t))
	jwt.Init("test-secret-test-secret-test-secret", 30, 168)
	svc := NewAuthService(memstore.New().Repositories(), memstore.NewCache(), 0)
	if _, err := svc.Provision(request.ProvisionUserRequest{
		UserId: "S1", Nickname: "stu", Password: "secret123", Role: "student",
	}); err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestLoginAndRefresh(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	rsp, err := svc.Login(ctx, request.LoginRequest{UserId: "S1", Password: "secret123"})
	if err != nil {
		t.Fatal(err)
	}
	if rsp.Role != "student" || rsp.AccessToken == "" || rsp.RefreshToken == "" {
		t.Fatalf("unexpected login respond %+v", rsp)
	}
	claims, err := jwt.ParseToken(rsp.AccessToken)
	if err != nil || claims.UserID != "S1" || claims.Role != "student" || claims.Subject != jwt.SubjectAccess {
		t.Fatalf("bad access claims %+v, %v", claims, err)
	}

	refreshed, err := svc.Refresh(ctx, rsp.RefreshToken)
	if err != nil || refreshed.AccessToken == "" {
		t.Fatalf("refresh failed: %v", err)
	}

	// 不能用 Access Token 刷新
	if _, err := svc.Refresh(ctx, rsp.AccessToken); errorx.GetCode(err) != errorx.CodeUnauthorized {
		t.Fatalf("access token refresh err = %v", err)
	}

	// 第二台设备登录不影响第一台
	second, err := svc.Login(ctx, request.LoginRequest{UserId: "S1", Password: "secret123"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Refresh(ctx, rsp.RefreshToken); err != nil {
		t.Fatalf("first device refresh after second login: %v", err)
	}

	// 登出后该 Refresh Token 失效
	if err := svc.Logout(ctx, second.RefreshToken); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Refresh(ctx, second.RefreshToken); errorx.GetCode(err) != errorx.CodeUnauthorized {
		t.Fatalf("logged out token still refreshes: %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, request.LoginRequest{UserId: "S1", Password: "wrong-pass"})
	if errorx.GetCode(err) != errorx.CodeInvalidPassword {
		t.Fatalf("wrong password err = %v", err)
	}
	_, err = svc.Login(ctx, request.LoginRequest{UserId: "nobody", Password: "secret123"})
	if errorx.GetCode(err) != errorx.CodeUserNotExist {
		t.Fatalf("unknown user err = %v", err)
	}
}

func TestProvisionAndEnsureAdmin(t *testing.T) {
	svc := newService(t)

	_, err := svc.Provision(request.ProvisionUserRequest{UserId: "S1", Nickname: "dup", Password: "secret123", Role: "student"})
	if errorx.GetCode(err) != errorx.CodeUserExist {
		t.Fatalf("duplicate provision err = %v", err)
	}
	_, err = svc.Provision(request.ProvisionUserRequest{UserId: "X", Nickname: "x", Password: "secret123", Role: "janitor"})
	if errorx.Kind(err) != errorx.KindValidation {
		t.Fatalf("bad role err = %v", err)
	}

	if err := svc.EnsureAdmin("root", "rootpass"); err != nil {
		t.Fatal(err)
	}
	// 重复调用无副作用
	if err := svc.EnsureAdmin("root", "other"); err != nil {
		t.Fatal(err)
	}
	rsp, err := svc.Login(context.Background(), request.LoginRequest{UserId: "root", Password: "rootpass"})
	if err != nil || rsp.Role != "admin" {
		t.Fatalf("admin login: %+v, %v", rsp, err)
	}
}
