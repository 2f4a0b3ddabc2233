package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/stargatehub/events-gin/internal/api"
	"github.com/stargatehub/events-gin/internal/model"
	"github.com/stargatehub/events-gin/internal/service"
)

// fakeQueryService 可编程的查询服务
type fakeQueryService struct {
	events     []*model.EventModel
	total      int64
	err        error
	lastFilter *service.ListEventsFilter
}

func (f *fakeQueryService) ListEvents(filter *service.ListEventsFilter) ([]*model.EventModel, int64, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.events, f.total, nil
}

func (f *fakeQueryService) GetEvent(id string) (*model.EventModel, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, event := range f.events {
		if event.ID == id {
			return event, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// newEventRouter 构造事件路由
func newEventRouter(svc service.EventQueryService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(api.ErrorHandlerMiddleware())
	controller := api.NewEventController(svc)
	router.GET("/api/v1/events", controller.ListEvents)
	router.GET("/api/v1/events/:id", controller.GetEvent)
	return router
}

// sampleEvents 构造事件模型列表
func sampleEvents(n int) []*model.EventModel {
	events := make([]*model.EventModel, 0, n)
	for i := 1; i <= n; i++ {
		events = append(events, &model.EventModel{
			ID:       fmt.Sprintf("id-%d", i),
			Title:    fmt.Sprintf("Event %d", i),
			Category: model.CategoryStargate,
			Type:     model.TypeConference,
			Source:   model.SourceOpenAI,
			IsActive: true,
		})
	}
	return events
}

// TestEventController_ListEvents 测试事件列表响应
func TestEventController_ListEvents(t *testing.T) {
	svc := &fakeQueryService{events: sampleEvents(3), total: 3}
	router := newEventRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?category=stargate&upcoming=true&page=2&limit=10", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, int64(3), resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, 10, resp.Pagination.PageSize)
	assert.Equal(t, 1, resp.Pagination.TotalPage)

	// 查询参数传递到过滤器
	require.NotNil(t, svc.lastFilter)
	assert.Equal(t, "stargate", svc.lastFilter.Category)
	require.NotNil(t, svc.lastFilter.Upcoming)
	assert.True(t, *svc.lastFilter.Upcoming)
	assert.Equal(t, 2, svc.lastFilter.Page)
	assert.Equal(t, 10, svc.lastFilter.PageSize)
}

// TestEventController_ListEventsBadBool 测试非法布尔参数
func TestEventController_ListEventsBadBool(t *testing.T) {
	svc := &fakeQueryService{}
	router := newEventRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?upcoming=maybe", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	// 服务层未被调用
	assert.Nil(t, svc.lastFilter)
}

// TestEventController_ListEventsInvalidFilter 测试服务层校验错误映射为 400
func TestEventController_ListEventsInvalidFilter(t *testing.T) {
	svc := &fakeQueryService{err: fmt.Errorf("%w: parties", service.ErrInvalidCategory)}
	router := newEventRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?category=parties", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Detail, "invalid category")
}

// TestEventController_ListEventsLimitClamp 测试超限 limit 的分页元数据反映生效值
func TestEventController_ListEventsLimitClamp(t *testing.T) {
	svc := &fakeQueryService{events: sampleEvents(100), total: 150}
	router := newEventRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?limit=500", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// page_size 和 total_page 基于夹取后的页大小, 客户端按元数据翻页不丢数据
	assert.Equal(t, 100, resp.Pagination.PageSize)
	assert.Equal(t, int64(150), resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.TotalPage)

	require.NotNil(t, svc.lastFilter)
	assert.Equal(t, 100, svc.lastFilter.PageSize)
}

// TestEventController_ListEventsServiceError 测试意外错误经错误中间件返回 500
func TestEventController_ListEventsServiceError(t *testing.T) {
	svc := &fakeQueryService{err: fmt.Errorf("database is gone")}
	router := newEventRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "failed to list events", resp.Message)
	assert.Contains(t, resp.Detail, "database is gone")
}

// TestEventController_GetEvent 测试按 ID 获取
func TestEventController_GetEvent(t *testing.T) {
	svc := &fakeQueryService{events: sampleEvents(1)}
	router := newEventRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/id-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp api.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
}

// TestEventController_GetEventNotFound 测试不存在的事件返回 404
func TestEventController_GetEventNotFound(t *testing.T) {
	svc := &fakeQueryService{}
	router := newEventRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events/missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
