package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stargatehub/events-gin/internal/service"
	"gorm.io/gorm"
)

// EventController 事件查询控制器
type EventController struct {
	queryService service.EventQueryService
}

// NewEventController 创建事件查询控制器
func NewEventController(queryService service.EventQueryService) *EventController {
	return &EventController{
		queryService: queryService,
	}
}

// ListEvents 获取事件列表
// 支持 category/source/search/upcoming/featured 过滤和分页,
// 所有条件以 AND 组合
func (c *EventController) ListEvents(ctx *gin.Context) {
	filter := &service.ListEventsFilter{
		Category: ctx.Query("category"),
		Source:   ctx.Query("source"),
		Search:   ctx.Query("search"),
	}

	// 字符串布尔参数转换
	if upcomingStr := ctx.Query("upcoming"); upcomingStr != "" {
		upcoming, err := parseBoolParam(upcomingStr)
		if err != nil {
			Error(ctx, http.StatusBadRequest, "invalid upcoming parameter", err.Error())
			return
		}
		filter.Upcoming = &upcoming
	}
	if featuredStr := ctx.Query("featured"); featuredStr != "" {
		featured, err := parseBoolParam(featuredStr)
		if err != nil {
			Error(ctx, http.StatusBadRequest, "invalid featured parameter", err.Error())
			return
		}
		filter.Featured = &featured
	}

	// 分页参数
	if pageStr := ctx.Query("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			filter.Page = page
		}
	}
	if limitStr := ctx.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.PageSize = limit
		}
	}
	// 分页元数据必须基于生效的页大小计算, 这里提前归一化
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = service.DefaultPageSize
	}
	if filter.PageSize > service.MaxPageSize {
		filter.PageSize = service.MaxPageSize
	}

	events, total, err := c.queryService.ListEvents(filter)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCategory) || errors.Is(err, service.ErrInvalidSource) {
			Error(ctx, http.StatusBadRequest, "invalid query parameters", err.Error())
			return
		}
		_ = ctx.Error(WrapError(err, http.StatusInternalServerError, "failed to list events"))
		return
	}

	// 计算总页数
	totalPage := int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))

	Paginated(ctx, events, PaginationInfo{
		Page:      filter.Page,
		PageSize:  filter.PageSize,
		Total:     total,
		TotalPage: totalPage,
	})
}

// GetEvent 获取单个事件
func (c *EventController) GetEvent(ctx *gin.Context) {
	id := ctx.Param("id")

	event, err := c.queryService.GetEvent(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			Error(ctx, http.StatusNotFound, "event not found", "no event with id "+id)
			return
		}
		_ = ctx.Error(WrapError(err, http.StatusInternalServerError, "failed to get event"))
		return
	}

	Success(ctx, event)
}

// parseBoolParam 解析字符串布尔参数
func parseBoolParam(value string) (bool, error) {
	return strconv.ParseBool(strings.ToLower(strings.TrimSpace(value)))
}
