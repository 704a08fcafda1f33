package effects

// Layer corresponds to the comprehensive rules layers for continuous effects.
type Layer int

const (
	LayerCopy Layer = 1 + iota
	LayerControl
	LayerText
	LayerType
	LayerColor
	LayerAbility
	LayerPTCharacteristicDefining
	LayerPTAdjusting
	LayerOther
)

var layerOrder = []Layer{
	LayerCopy,
	LayerControl,
	LayerText,
	LayerType,
	LayerColor,
	LayerAbility,
	LayerPTCharacteristicDefining,
	LayerPTAdjusting,
	LayerOther,
}

var layerNames = map[Layer]string{
	LayerCopy:                     "COPY",
	LayerControl:                  "CONTROL",
	LayerText:                     "TEXT",
	LayerType:                     "TYPE",
	LayerColor:                    "COLOR",
	LayerAbility:                  "ABILITY",
	LayerPTCharacteristicDefining: "PT_CDA",
	LayerPTAdjusting:              "PT_ADJUSTING",
	LayerOther:                    "OTHER",
}

func (l Layer) String() string {
	if name, ok := layerNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// SubLayer orders effects inside LayerPTAdjusting. Other layers only use
// SubLayerNone.
type SubLayer int

const (
	SubLayerNone SubLayer = iota
	SubLayerSetPT
	SubLayerModifyPT
	// SubLayerCounters is reserved for +1/+1 and -1/-1 counters, which the
	// layer system applies itself.
	SubLayerCounters
	SubLayerSwitchPT
)

var subLayerOrder = []SubLayer{SubLayerSetPT, SubLayerModifyPT, SubLayerCounters, SubLayerSwitchPT}

// Field names a characteristic that can be queried.
type Field int

const (
	FieldName Field = iota
	FieldController
	FieldText
	FieldTypes
	FieldSubtypes
	FieldSupertypes
	FieldColors
	FieldAbilities
	FieldPower
	FieldToughness
	FieldRestrictions
)

// LastLayer returns the highest layer that can change f. Queries for f stop
// after that layer.
func (f Field) LastLayer() Layer {
	switch f {
	case FieldName:
		return LayerCopy
	case FieldController:
		return LayerControl
	case FieldText:
		return LayerText
	case FieldTypes, FieldSubtypes, FieldSupertypes:
		return LayerType
	case FieldColors:
		return LayerColor
	case FieldAbilities:
		return LayerAbility
	case FieldPower, FieldToughness:
		return LayerPTAdjusting
	default:
		return LayerOther
	}
}
