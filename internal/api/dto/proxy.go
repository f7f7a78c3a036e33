package dto

import (
	"time"

	"github.com/proxynest/proxynest/internal/domain/proxy"
	"github.com/proxynest/proxynest/internal/types"
	"github.com/proxynest/proxynest/internal/validator"
)

// CreateProxyRequest represents the request to register a proxy in the pool
type CreateProxyRequest struct {
	Label     string `json:"label" binding:"required"`
	IPAddress string `json:"ip_address" binding:"required,ip"`
	Port      int    `json:"port" binding:"required,min=1,max=65535"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	Location  string `json:"location,omitempty"`
	ISP       string `json:"isp,omitempty"`
	DongleID  string `json:"dongle_id,omitempty"`
}

func (r *CreateProxyRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreateProxyRequest) ToProxy() *proxy.Proxy {
	return &proxy.Proxy{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PROXY),
		Label:     r.Label,
		IPAddress: r.IPAddress,
		Port:      r.Port,
		Username:  r.Username,
		Password:  r.Password,
		Location:  r.Location,
		ISP:       r.ISP,
		DongleID:  r.DongleID,
		Status:    types.ProxyStatusAvailable,
		BaseModel: types.GetDefaultBaseModel(),
	}
}

// UpdateProxyRequest carries the mutable proxy fields; nil means unchanged
type UpdateProxyRequest struct {
	Label    *string `json:"label,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	Location *string `json:"location,omitempty"`
	ISP      *string `json:"isp,omitempty"`
	DongleID *string `json:"dongle_id,omitempty"`
}

// ProxyResponse represents a proxy in API responses. Credentials are
// returned only through this type when the caller holds the allocation.
type ProxyResponse struct {
	ID              string            `json:"id"`
	Label           string            `json:"label"`
	IPAddress       string            `json:"ip_address"`
	Port            int               `json:"port"`
	Username        string            `json:"username,omitempty"`
	Password        string            `json:"password,omitempty"`
	Location        string            `json:"location,omitempty"`
	ISP             string            `json:"isp,omitempty"`
	DongleID        string            `json:"dongle_id,omitempty"`
	Status          types.ProxyStatus `json:"status"`
	LastHealthCheck *time.Time        `json:"last_health_check,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func FromProxy(p *proxy.Proxy) *ProxyResponse {
	return &ProxyResponse{
		ID:              p.ID,
		Label:           p.Label,
		IPAddress:       p.IPAddress,
		Port:            p.Port,
		Username:        p.Username,
		Password:        p.Password,
		Location:        p.Location,
		ISP:             p.ISP,
		DongleID:        p.DongleID,
		Status:          p.Status,
		LastHealthCheck: p.LastHealthCheck,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ListProxiesRequest filters the pool listing
type ListProxiesRequest struct {
	Status         *types.ProxyStatus `form:"status"`
	IncludeDeleted bool               `form:"include_deleted"`
}

func (r *ListProxiesRequest) ToFilter() *types.ProxyFilter {
	return &types.ProxyFilter{
		Status:         r.Status,
		IncludeDeleted: r.IncludeDeleted,
	}
}
