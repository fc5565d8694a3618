package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockflow/internal/core/apperror"
	"stockflow/internal/core/id"
	"stockflow/internal/domain"
	"stockflow/internal/domain/operations"
	"stockflow/internal/domain/valuation"
	"stockflow/internal/infrastructure/http/v1/middleware"
	"stockflow/pkg/numerator"
)

type memOpsRepo struct {
	ops map[id.ID]*operations.Operation
}

func newMemOpsRepo() *memOpsRepo {
	return &memOpsRepo{ops: make(map[id.ID]*operations.Operation)}
}

func (r *memOpsRepo) Create(_ context.Context, op *operations.Operation) error {
	cp := *op
	r.ops[op.ID] = &cp
	return nil
}

func (r *memOpsRepo) GetByID(_ context.Context, opID id.ID) (*operations.Operation, error) {
	op, ok := r.ops[opID]
	if !ok {
		return nil, apperror.NewNotFound("operation", opID)
	}
	cp := *op
	return &cp, nil
}

func (r *memOpsRepo) GetByReference(_ context.Context, reference string) (*operations.Operation, error) {
	for _, op := range r.ops {
		if op.Reference == reference {
			cp := *op
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("operation", reference)
}

func (r *memOpsRepo) Update(_ context.Context, op *operations.Operation) error {
	cp := *op
	r.ops[op.ID] = &cp
	return nil
}

func (r *memOpsRepo) Delete(_ context.Context, opID id.ID) error {
	delete(r.ops, opID)
	return nil
}

func (r *memOpsRepo) GetItems(_ context.Context, _ id.ID) ([]operations.Item, error) {
	return nil, nil
}

func (r *memOpsRepo) ReplaceItems(_ context.Context, _ id.ID, _ []operations.Item) error {
	return nil
}

func (r *memOpsRepo) List(_ context.Context, _ operations.ListFilter) (domain.ListResult[*operations.Operation], error) {
	return domain.ListResult[*operations.Operation]{}, nil
}

func (r *memOpsRepo) GetForUpdate(ctx context.Context, opID id.ID) (*operations.Operation, error) {
	return r.GetByID(ctx, opID)
}

type passTx struct{}

func (passTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type staticResolver struct{}

func (staticResolver) ResolveCode(_ context.Context, _ string) (id.ID, error) {
	return id.New(), nil
}

type staticRefs struct{}

func (staticRefs) GetNextNumber(_ context.Context, cfg numerator.Config, _ *numerator.Options, _ time.Time) (string, error) {
	return cfg.Prefix + "-2026-00001", nil
}

func transitionRouter(repo *memOpsRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := operations.NewService(repo, valuation.NewEngine(nil), staticResolver{}, staticRefs{}, passTx{}, nil)
	handler := NewOperationHandler(NewBaseHandler(), svc)

	router := gin.New()
	router.Use(middleware.Actor())
	router.POST("/operations/:id/status", handler.TransitionStatus)
	return router
}

func TestOperationTransition_BodyActorWins(t *testing.T) {
	repo := newMemOpsRepo()
	op := operations.NewOperation(operations.TypeReceipt)
	require.NoError(t, repo.Create(context.Background(), op))

	router := transitionRouter(repo)

	body := `{"status":"WAITING","actor":"jane"}`
	req := httptest.NewRequest(http.MethodPost, "/operations/"+op.ID.String()+"/status", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderActor, "header-user")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stored := repo.ops[op.ID]
	assert.Equal(t, operations.StatusWaiting, stored.Status)
	assert.Equal(t, "jane", stored.LastEditedBy)
}

func TestOperationTransition_HeaderActorFallback(t *testing.T) {
	repo := newMemOpsRepo()
	op := operations.NewOperation(operations.TypeReceipt)
	require.NoError(t, repo.Create(context.Background(), op))

	router := transitionRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/operations/"+op.ID.String()+"/status", strings.NewReader(`{"status":"WAITING"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderActor, "header-user")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "header-user", repo.ops[op.ID].LastEditedBy)
}
