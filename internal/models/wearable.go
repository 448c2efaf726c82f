package models

import (
	"strings"
	"time"
)

// Provider is a wearable vendor identifier as used by the integration service.
type Provider string

// Providers lists the wearable sources a patient may connect.
var Providers = []Provider{"APPLE", "GARMIN", "FITBIT", "SAMSUNG", "POLAR", "WITHINGS", "OURA", "WHOOP"}

// ParseProvider normalizes s and reports whether it is supported.
func ParseProvider(s string) (Provider, bool) {
	p := Provider(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Providers {
		if p == known {
			return p, true
		}
	}
	return p, false
}

// WearableStatus is the state of a patient's link to a provider.
type WearableStatus string

const (
	WearablePending      WearableStatus = "pending"
	WearableConnected    WearableStatus = "connected"
	WearableDisconnected WearableStatus = "disconnected"
)

// WearableConnection links a patient to a provider account. Unique per (patient, provider).
type WearableConnection struct {
	ID           string         `json:"id"`
	PatientID    string         `json:"patient_id"`
	Provider     Provider       `json:"provider"`
	Status       WearableStatus `json:"status"`
	VendorUserID string         `json:"vendor_user_id,omitempty"`
	SessionID    string         `json:"-"`
	ConnectedAt  *time.Time     `json:"connected_at,omitempty"`
	LastSyncAt   *time.Time     `json:"last_sync_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
