package models

import "time"

// Recommendation is one row of the transfer recommendation output.
type Recommendation struct {
	Key          string `bson:"sku" json:"sku"`
	Name         string `bson:"name" json:"name"`
	Group        string `bson:"group" json:"group"`
	DisplayGroup string `bson:"display_group" json:"display_group"`
	TransferQty  int    `bson:"transfer_qty" json:"transfer_qty"`
	Sweep        bool   `bson:"sweep" json:"sweep"`

	DepletionDays        float64 `bson:"depletion_days" json:"depletion_days"`
	DisplayDepletionDays int     `bson:"display_depletion_days" json:"display_depletion_days"`
	GroupUrgency         float64 `bson:"group_urgency" json:"group_urgency"`

	DestinationStock    float64 `bson:"destination_stock" json:"destination_stock"`
	OriginStock         float64 `bson:"origin_stock" json:"origin_stock"`
	DestinationVelocity float64 `bson:"destination_velocity" json:"destination_velocity"`
	OriginRetained      float64 `bson:"origin_retained" json:"origin_retained"`
	DestinationTarget   float64 `bson:"destination_target" json:"destination_target"`
}

// RunReport is the persisted outcome of one recommendation run.
type RunReport struct {
	RunAt           time.Time        `bson:"run_at" json:"run_at"`
	SKUCount        int              `bson:"sku_count" json:"sku_count"`
	TotalQty        int              `bson:"total_qty" json:"total_qty"`
	UrgentCount     int              `bson:"urgent_count" json:"urgent_count"`
	SweepCount      int              `bson:"sweep_count" json:"sweep_count"`
	CorrectedSKUs   []string         `bson:"corrected_skus" json:"corrected_skus"`
	Recommendations []Recommendation `bson:"recommendations" json:"recommendations"`
	CreatedAt       time.Time        `bson:"created_at" json:"created_at"`
}
