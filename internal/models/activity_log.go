package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ActionType is the category of an administrative action.
type ActionType string

const (
	ActionLogin      ActionType = "login"
	ActionLogout     ActionType = "logout"
	ActionCreate     ActionType = "create"
	ActionUpdate     ActionType = "update"
	ActionDelete     ActionType = "delete"
	ActionApprove    ActionType = "approve"
	ActionReject     ActionType = "reject"
	ActionBan        ActionType = "ban"
	ActionUnban      ActionType = "unban"
	ActionVerify     ActionType = "verify"
	ActionRefund     ActionType = "refund"
	ActionExport     ActionType = "export"
	ActionSettings   ActionType = "settings"
	ActionPermission ActionType = "permission"
)

// HighRisk reports whether the action type is always flagged high risk at
// write time, regardless of what the caller passed.
func (a ActionType) HighRisk() bool {
	switch a {
	case ActionDelete, ActionBan, ActionRefund, ActionPermission:
		return true
	}
	return false
}

// Valid reports whether the action type is a known value.
func (a ActionType) Valid() bool {
	switch a {
	case ActionLogin, ActionLogout, ActionCreate, ActionUpdate, ActionDelete,
		ActionApprove, ActionReject, ActionBan, ActionUnban, ActionVerify,
		ActionRefund, ActionExport, ActionSettings, ActionPermission:
		return true
	}
	return false
}

// DeviceInfo captures the origin device details for an audit entry.
type DeviceInfo struct {
	UserAgent string `json:"user_agent"`
	IP        string `json:"ip"`
	Browser   string `json:"browser"`
}

// NewDeviceInfo derives device details from the request user agent and IP.
func NewDeviceInfo(ip, userAgent string) DeviceInfo {
	browser := ""
	if userAgent != "" {
		browser = strings.SplitN(userAgent, " ", 2)[0]
	}
	return DeviceInfo{UserAgent: userAgent, IP: ip, Browser: browser}
}

// Value implements driver.Valuer, serializing device info as JSONB.
func (d DeviceInfo) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner for JSONB columns.
func (d *DeviceInfo) Scan(src interface{}) error {
	if src == nil {
		*d = DeviceInfo{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported type for DeviceInfo: %T", src)
	}
	if len(b) == 0 {
		*d = DeviceInfo{}
		return nil
	}
	return json.Unmarshal(b, d)
}

// ActivityLog is one append-only record of an administrative action. Entries
// are never updated or deleted.
type ActivityLog struct {
	ID          int        `db:"id" json:"id"`
	AdminID     int        `db:"admin_id" json:"adminId"`
	ActionType  ActionType `db:"action_type" json:"actionType"`
	Description string     `db:"description" json:"description"`
	TargetModel *string    `db:"target_model" json:"targetModel,omitempty"`
	TargetID    *int       `db:"target_id" json:"targetId,omitempty"`
	IPAddress   string     `db:"ip_address" json:"ipAddress"`
	UserAgent   *string    `db:"user_agent" json:"userAgent,omitempty"`
	DeviceInfo  DeviceInfo `db:"device_info" json:"deviceInfo"`
	Timestamp   time.Time  `db:"timestamp" json:"timestamp"`
	IsHighRisk  bool       `db:"is_high_risk" json:"isHighRisk"`
}
