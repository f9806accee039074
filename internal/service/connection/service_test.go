package connection

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"campus_chat_server/internal/dao/memstore"
	"campus_chat_server/internal/dao/mysql/repository"
	"campus_chat_server/internal/model"
	"campus_chat_server/pkg/errorx"
	"campus_chat_server/pkg/util/keylock"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T, ids ...string) (*connectionService, *repository.Repositories) {
	t.Helper()
	zap.ReplaceGlobals(zaptest.NewLogger(t))
	repos := memstore.New().Repositories()
	for _, id := range ids {
		if err := repos.User.Create(&model.UserInfo{Uuid: id, Nickname: id, Role: model.RoleStudent}); err != nil {
			t.Fatalf("seed user %s: %v", id, err)
		}
	}
	return NewConnectionService(repos, keylock.New(), nil), repos
}

func wantKind(t *testing.T, err error, kind string) {
	t.Helper()
	if got := errorx.Kind(err); got != kind {
		t.Fatalf("kind = %q (err=%v), want %q", got, err, kind)
	}
}

func TestRequestCreatesPending(t *testing.T) {
	s, _ := newTestService(t, "U1", "U2")
	conn, err := s.RequestConnection("U2", "U1")
	if err != nil {
		t.Fatal(err)
	}
	if conn.LowId != "U1" || conn.HighId != "U2" {
		t.Fatalf("pair not canonical: %s/%s", conn.LowId, conn.HighId)
	}
	if conn.Status != model.ConnectionPending || conn.RequesterId != "U2" {
		t.Fatalf("unexpected record %+v", conn)
	}
}

func TestRequestValidation(t *testing.T) {
	s, _ := newTestService(t, "U1")
	_, err := s.RequestConnection("U1", "U1")
	wantKind(t, err, errorx.KindValidation)
	_, err = s.RequestConnection("", "U1")
	wantKind(t, err, errorx.KindValidation)
	_, err = s.RequestConnection("U1", "ghost")
	wantKind(t, err, errorx.KindNotFound)
}

// a->b 之后 b->a 必须失败
func TestReverseRequestIsDuplicate(t *testing.T) {
	s, _ := newTestService(t, "U1", "U2")
	if _, err := s.RequestConnection("U1", "U2"); err != nil {
		t.Fatal(err)
	}
	_, err := s.RequestConnection("U2", "U1")
	wantKind(t, err, errorx.KindDuplicateConnection)
	if !errors.Is(err, errorx.ErrDuplicateConnection) {
		t.Fatal("errors.Is should match duplicate")
	}
	_, err = s.RequestConnection("U1", "U2")
	wantKind(t, err, errorx.KindDuplicateConnection)
}

func TestRespondTransitionGuard(t *testing.T) {
	type setup func(s *connectionService)
	pending := func(s *connectionService) { _, _ = s.RequestConnection("U1", "U2") }
	accepted := func(s *connectionService) {
		pending(s)
		_, _ = s.RespondConnection("U2", "U1", model.ConnectionAccepted)
	}
	rejected := func(s *connectionService) {
		pending(s)
		_, _ = s.RespondConnection("U2", "U1", model.ConnectionRejected)
	}
	none := func(s *connectionService) {}

	cases := []struct {
		name      string
		setup     setup
		responder string
		requester string
		decision  model.ConnectionStatus
		wantKind  string
	}{
		{"pending accepted by other", pending, "U2", "U1", model.ConnectionAccepted, ""},
		{"pending rejected by other", pending, "U2", "U1", model.ConnectionRejected, ""},
		{"pending accepted by requester", pending, "U1", "U2", model.ConnectionAccepted, errorx.KindInvalidTransition},
		{"pending rejected by requester", pending, "U1", "U2", model.ConnectionRejected, errorx.KindInvalidTransition},
		{"accepted again", accepted, "U2", "U1", model.ConnectionAccepted, errorx.KindInvalidTransition},
		{"accepted then rejected", accepted, "U2", "U1", model.ConnectionRejected, errorx.KindInvalidTransition},
		{"rejected then accepted", rejected, "U2", "U1", model.ConnectionAccepted, errorx.KindInvalidTransition},
		{"no edge", none, "U2", "U1", model.ConnectionAccepted, errorx.KindInvalidTransition},
		{"bad decision", pending, "U2", "U1", model.ConnectionPending, errorx.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, _ := newTestService(t, "U1", "U2")
			tc.setup(s)
			conn, err := s.RespondConnection(tc.responder, tc.requester, tc.decision)
			if tc.wantKind == "" {
				if err != nil {
					t.Fatal(err)
				}
				if conn.Status != tc.decision {
					t.Fatalf("status = %s", conn.Status)
				}
				return
			}
			wantKind(t, err, tc.wantKind)
		})
	}
}

func TestRemoveResetsPair(t *testing.T) {
	s, repos := newTestService(t, "U1", "U2")
	_, _ = s.RequestConnection("U1", "U2")

	// pending 不能删除
	wantKind(t, s.RemoveConnection("U1", "U2"), errorx.KindNotFound)

	if _, err := s.RespondConnection("U2", "U1", model.ConnectionAccepted); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveConnection("U2", "U1"); err != nil {
		t.Fatal(err)
	}
	if _, err := repos.Connection.Find("U1", "U2"); !errorx.IsNotFound(err) {
		t.Fatalf("edge should be gone, err=%v", err)
	}
	wantKind(t, s.RemoveConnection("U1", "U2"), errorx.KindNotFound)

	// 删除后重新申请，方向可以相反
	conn, err := s.RequestConnection("U2", "U1")
	if err != nil {
		t.Fatal(err)
	}
	if conn.Status != model.ConnectionPending || conn.RequesterId != "U2" {
		t.Fatalf("fresh edge expected, got %+v", conn)
	}
}

func TestRejectedBlocksRerequest(t *testing.T) {
	s, _ := newTestService(t, "U1", "U2")
	_, _ = s.RequestConnection("U1", "U2")
	if _, err := s.RespondConnection("U2", "U1", model.ConnectionRejected); err != nil {
		t.Fatal(err)
	}
	_, err := s.RequestConnection("U1", "U2")
	wantKind(t, err, errorx.KindDuplicateConnection)
	_, err = s.RequestConnection("U2", "U1")
	wantKind(t, err, errorx.KindDuplicateConnection)
	wantKind(t, s.RemoveConnection("U1", "U2"), errorx.KindNotFound)
}

func TestListConnections(t *testing.T) {
	s, _ := newTestService(t, "U1", "U2", "U3", "U4")
	_, _ = s.RequestConnection("U1", "U2")
	_, _ = s.RequestConnection("U3", "U1")
	_, _ = s.RespondConnection("U1", "U3", model.ConnectionAccepted)
	_, _ = s.RequestConnection("U2", "U4")

	list, err := s.ListConnections("U1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d", len(list))
	}
	byPeer := map[string]string{}
	for _, c := range list {
		byPeer[c.PeerId] = c.Status
	}
	if byPeer["U2"] != "pending" || byPeer["U3"] != "accepted" {
		t.Fatalf("unexpected list %+v", byPeer)
	}

	list, _ = s.ListConnections("U4")
	if len(list) != 1 || !list[0].Incoming || list[0].PeerId != "U2" {
		t.Fatalf("U4 should see one incoming request, got %+v", list)
	}

	ok, err := s.IsAccepted("U3", "U1")
	if err != nil || !ok {
		t.Fatalf("IsAccepted = %v, %v", ok, err)
	}
	ok, _ = s.IsAccepted("U1", "U2")
	if ok {
		t.Fatal("pending is not accepted")
	}
}

// 双方同时互相申请，只能成功一个
func TestConcurrentRequestsSinglePair(t *testing.T) {
	s, _ := newTestService(t, "U1", "U2")
	var wg sync.WaitGroup
	var okCount, dupCount int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := "U1", "U2"
			if i%2 == 1 {
				from, to = to, from
			}
			_, err := s.RequestConnection(from, to)
			switch errorx.Kind(err) {
			case "":
				atomic.AddInt32(&okCount, 1)
			case errorx.KindDuplicateConnection:
				atomic.AddInt32(&dupCount, 1)
			default:
				t.Errorf("unexpected error %v", err)
			}
		}(i)
	}
	wg.Wait()
	if okCount != 1 || dupCount != 49 {
		t.Fatalf("ok=%d dup=%d", okCount, dupCount)
	}
}

// 同一个 pending 申请被并发接受，只能成功一次
func TestConcurrentRespond(t *testing.T) {
	s, _ := newTestService(t, "U1", "U2")
	_, _ = s.RequestConnection("U1", "U2")

	var wg sync.WaitGroup
	var okCount int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decision := model.ConnectionAccepted
			if i%2 == 1 {
				decision = model.ConnectionRejected
			}
			if _, err := s.RespondConnection("U2", "U1", decision); err == nil {
				atomic.AddInt32(&okCount, 1)
			}
		}(i)
	}
	wg.Wait()
	if okCount != 1 {
		t.Fatalf("ok = %d, want exactly one", okCount)
	}
}

func TestDisjointPairsInParallel(t *testing.T) {
	ids := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		ids = append(ids, fmt.Sprintf("U%02d", i))
	}
	s, _ := newTestService(t, ids...)
	var wg sync.WaitGroup
	for i := 0; i < len(ids); i += 2 {
		wg.Add(1)
		go func(a, b string) {
			defer wg.Done()
			if _, err := s.RequestConnection(a, b); err != nil {
				t.Error(err)
				return
			}
			if _, err := s.RespondConnection(b, a, model.ConnectionAccepted); err != nil {
				t.Error(err)
			}
		}(ids[i], ids[i+1])
	}
	wg.Wait()
	for i := 0; i < len(ids); i += 2 {
		ok, _ := s.IsAccepted(ids[i], ids[i+1])
		if !ok {
			t.Fatalf("%s-%s not accepted", ids[i], ids[i+1])
		}
	}
}
