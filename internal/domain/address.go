package domain

import (
	"strings"
	"time"
)

type Province struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type District struct {
	Code         string `json:"code"`
	ProvinceCode string `json:"provinceCode"`
	Name         string `json:"name"`
}

type Ward struct {
	Code         string `json:"code"`
	DistrictCode string `json:"districtCode"`
	Name         string `json:"name"`
}

// Address is a delivery address in the province/district/ward hierarchy.
type Address struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	FullName     string    `json:"fullName"`
	Phone        string    `json:"phone"`
	ProvinceCode string    `json:"provinceCode"`
	ProvinceName string    `json:"provinceName"`
	DistrictCode string    `json:"districtCode"`
	DistrictName string    `json:"districtName"`
	WardCode     string    `json:"wardCode"`
	WardName     string    `json:"wardName"`
	Detail       string    `json:"detail"`
	IsDefault    bool      `json:"isDefault"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Format renders the address as a single line, street first.
func (a Address) Format() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.FullName, a.Phone, a.Detail, a.WardName, a.DistrictName, a.ProvinceName} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
