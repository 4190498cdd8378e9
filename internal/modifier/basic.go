package modifier

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	Linear  uint64 = 0
	Invalid uint64 = 0x00ffffffffffffff
)

// basicNames lists modifiers that carry no decodable fields.
var basicNames = map[uint64]string{
	Linear:  "LINEAR",
	Invalid: "INVALID",

	Code(VendorIntel, 1):  "I915_X_TILED",
	Code(VendorIntel, 2):  "I915_Y_TILED",
	Code(VendorIntel, 3):  "I915_Yf_TILED",
	Code(VendorIntel, 4):  "I915_Y_TILED_CCS",
	Code(VendorIntel, 5):  "I915_Yf_TILED_CCS",
	Code(VendorIntel, 6):  "I915_Y_TILED_GEN12_RC_CCS",
	Code(VendorIntel, 7):  "I915_Y_TILED_GEN12_MC_CCS",
	Code(VendorIntel, 8):  "I915_Y_TILED_GEN12_RC_CCS_CC",
	Code(VendorIntel, 9):  "I915_4_TILED",
	Code(VendorIntel, 10): "I915_4_TILED_DG2_RC_CCS",
	Code(VendorIntel, 11): "I915_4_TILED_DG2_MC_CCS",
	Code(VendorIntel, 12): "I915_4_TILED_DG2_RC_CCS_CC",
	Code(VendorIntel, 13): "I915_4_TILED_MTL_RC_CCS",
	Code(VendorIntel, 14): "I915_4_TILED_MTL_MC_CCS",
	Code(VendorIntel, 15): "I915_4_TILED_MTL_RC_CCS_CC",
	Code(VendorIntel, 16): "I915_4_TILED_LNL_CCS",
	Code(VendorIntel, 17): "I915_4_TILED_BMG_CCS",

	Code(VendorSamsung, 1): "SAMSUNG_64_32_TILE",
	Code(VendorSamsung, 2): "SAMSUNG_16_16_TILE",

	Code(VendorQcom, 1): "QCOM_COMPRESSED",
	Code(VendorQcom, 2): "QCOM_TILED2",
	Code(VendorQcom, 3): "QCOM_TILED3",

	Code(VendorBroadcom, 1): "BROADCOM_VC4_T_TILED",
	Code(VendorBroadcom, 2): "BROADCOM_SAND32",
	Code(VendorBroadcom, 3): "BROADCOM_SAND64",
	Code(VendorBroadcom, 4): "BROADCOM_SAND128",
	Code(VendorBroadcom, 5): "BROADCOM_SAND256",
	Code(VendorBroadcom, 6): "BROADCOM_UIF",

	Code(VendorAllwinner, 1): "ALLWINNER_TILED",
}

func decodeBasic(mod uint64) Decoded {
	if name, ok := basicNames[mod]; ok {
		return Decoded{Name: name}
	}
	return Decoded{Name: unknown}
}

// Parse reads a modifier from hex ("0x..."), decimal, or a basic
// modifier name such as LINEAR.
func Parse(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty modifier")
	}

	name := strings.TrimPrefix(strings.ToUpper(s), "DRM_FORMAT_MOD_")
	for mod, n := range basicNames {
		if strings.ToUpper(n) == name {
			return mod, nil
		}
	}

	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid modifier %q: %w", s, err)
	}
	return v, nil
}
