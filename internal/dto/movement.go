package dto

import (
	"time"

	"warehouse-service/internal/models"

	"github.com/google/uuid"
)

type PostMovementRequest struct {
	Type              string     `json:"type" binding:"required,oneof=INCOMING OUTGOING ADJUSTMENT RETURN TRANSFER"`
	ProductID         uuid.UUID  `json:"product_id" binding:"required"`
	Quantity          int64      `json:"quantity" binding:"required,gt=0"`
	OriginZoneID      *uuid.UUID `json:"origin_zone_id"`
	DestinationZoneID *uuid.UUID `json:"destination_zone_id"`
	SupplierID        *uuid.UUID `json:"supplier_id"`
	WarehouseID       *uuid.UUID `json:"warehouse_id"`
	Lot               *string    `json:"lot"`
	Serial            *string    `json:"serial"`
	ExpiresAt         *time.Time `json:"expires_at"`
	Reference         string     `json:"reference" binding:"max=200"`
	Reason            string     `json:"reason" binding:"max=500"`
}

type MovementResponse struct {
	ID                uuid.UUID  `json:"id"`
	Type              string     `json:"type"`
	ProductID         uuid.UUID  `json:"product_id"`
	Quantity          int64      `json:"quantity"`
	SupplierID        *uuid.UUID `json:"supplier_id,omitempty"`
	WarehouseID       *uuid.UUID `json:"warehouse_id,omitempty"`
	OriginZoneID      *uuid.UUID `json:"origin_zone_id,omitempty"`
	DestinationZoneID *uuid.UUID `json:"destination_zone_id,omitempty"`
	Lot               *string    `json:"lot,omitempty"`
	Serial            *string    `json:"serial,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	Reference         string     `json:"reference,omitempty"`
	Reason            string     `json:"reason,omitempty"`
	ActorID           uuid.UUID  `json:"actor_id"`
	CreatedAt         time.Time  `json:"created_at"`
}

func FromMovement(m *models.Movement) MovementResponse {
	return MovementResponse{
		ID:                m.ID,
		Type:              string(m.Type),
		ProductID:         m.ProductID,
		Quantity:          m.Quantity,
		SupplierID:        m.SupplierID,
		WarehouseID:       m.WarehouseID,
		OriginZoneID:      m.OriginZoneID,
		DestinationZoneID: m.DestinationZoneID,
		Lot:               m.Lot,
		Serial:            m.Serial,
		ExpiresAt:         m.ExpiresAt,
		Reference:         m.Reference,
		Reason:            m.Reason,
		ActorID:           m.ActorID,
		CreatedAt:         m.CreatedAt,
	}
}

func FromMovements(list []models.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(list))
	for i := range list {
		out = append(out, FromMovement(&list[i]))
	}
	return out
}
