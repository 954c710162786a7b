package material

// Kind classifies a material. It is fixed when the material is created.
type Kind string

const (
	// KindRawMaterial is stock consumed by production plans
	KindRawMaterial Kind = "RAW_MATERIAL"
	// KindRecyclable is collected scrap awaiting processing into raw material
	KindRecyclable Kind = "RECYCLABLE_MATERIAL"
	// KindFinishedProduct is the output of production, sold through orders
	KindFinishedProduct Kind = "FINISHED_PRODUCT"
)

// String returns the string representation of Kind
func (k Kind) String() string {
	return string(k)
}

// IsValid returns true if the kind is one of the known kinds
func (k Kind) IsValid() bool {
	switch k {
	case KindRawMaterial, KindRecyclable, KindFinishedProduct:
		return true
	}
	return false
}
