package domain

import "time"

// SearchCriteria 分页查询条件
// Page numbering is 1-based. A zero PageSize means "server default".
type SearchCriteria struct {
	Page      int        `json:"page"`
	PageSize  int        `json:"pageSize"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// NewSearchCriteria returns criteria clamped to sane minimums.
func NewSearchCriteria(page, pageSize int) SearchCriteria {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return SearchCriteria{Page: page, PageSize: pageSize}
}

// SearchResults 分页查询结果
// Total reports how many documents match overall, independent of how many
// were fetched for the requested page.
type SearchResults[T any] struct {
	Total int64 `json:"total"`
	Items []T   `json:"items"`
}

// DeviceSearchCriteria 设备查询过滤器
type DeviceSearchCriteria struct {
	SearchCriteria
	SpecificationToken string `json:"specificationToken,omitempty"`
	SiteToken          string `json:"siteToken,omitempty"`
	ExcludeAssigned    bool   `json:"excludeAssigned,omitempty"`
}

// AssignmentSearchCriteria 站点分配查询过滤器
type AssignmentSearchCriteria struct {
	SearchCriteria
	Status AssignmentStatus `json:"status,omitempty"`
}

// AssignmentsForAssetSearchCriteria 按资产查询分配过滤器
type AssignmentsForAssetSearchCriteria struct {
	SearchCriteria
	SiteToken string           `json:"siteToken,omitempty"`
	Status    AssignmentStatus `json:"status,omitempty"`
}
