package domain

// Metadata keys scanned when no tracking integration answers.
const (
	MetaKeyShipmentTracking = "shipment tracking"
	MetaKeyShipmentCarrier  = "shipment carrier"
	MetaKeyShipmentDate     = "shipment date"
)

// ShipmentSource records where the shipments in a status response came from.
type ShipmentSource string

const (
	SourceTracking ShipmentSource = "tracking"
	SourceMetadata ShipmentSource = "metadata"
)

// Shipment is a derived, never persisted view of one parcel.
type Shipment struct {
	TrackingProvider string `json:"tracking_provider"`
	TrackingNumber   string `json:"tracking_number"`
	DateShipped      string `json:"date_shipped"`
}

// OrderStatus is the response of an order status lookup.
type OrderStatus struct {
	WasSuccessful bool           `json:"wasSuccessful"`
	ID            int64          `json:"id"`
	Total         string         `json:"total"`
	Shipments     []Shipment     `json:"shipments"`
	Source        ShipmentSource `json:"-"`
}

// ShipmentFromMeta scans metadata once and synthesizes a single shipment.
// Matching is exact and case-sensitive; a repeated key keeps its last value.
// Missing keys leave the corresponding field empty.
func ShipmentFromMeta(meta []MetaEntry) Shipment {
	var shipment Shipment
	for _, entry := range meta {
		switch entry.Key {
		case MetaKeyShipmentTracking:
			shipment.TrackingNumber = entry.Value
		case MetaKeyShipmentCarrier:
			shipment.TrackingProvider = entry.Value
		case MetaKeyShipmentDate:
			shipment.DateShipped = entry.Value
		}
	}
	return shipment
}
