package modifier

import "fmt"

// Vendor is the namespace stored in the top byte of a modifier.
type Vendor uint8

const (
	VendorNone      Vendor = 0x00
	VendorIntel     Vendor = 0x01
	VendorAMD       Vendor = 0x02
	VendorNVIDIA    Vendor = 0x03
	VendorSamsung   Vendor = 0x04
	VendorQcom      Vendor = 0x05
	VendorVivante   Vendor = 0x06
	VendorBroadcom  Vendor = 0x07
	VendorARM       Vendor = 0x08
	VendorAllwinner Vendor = 0x09
	VendorAmlogic   Vendor = 0x0a
	VendorMTK       Vendor = 0x0b
	VendorApple     Vendor = 0x0c
)

const vendorShift = 56

var vendorNames = map[Vendor]string{
	VendorNone:      "NONE",
	VendorIntel:     "INTEL",
	VendorAMD:       "AMD",
	VendorNVIDIA:    "NVIDIA",
	VendorSamsung:   "SAMSUNG",
	VendorQcom:      "QCOM",
	VendorVivante:   "VIVANTE",
	VendorBroadcom:  "BROADCOM",
	VendorARM:       "ARM",
	VendorAllwinner: "ALLWINNER",
	VendorAmlogic:   "AMLOGIC",
	VendorMTK:       "MTK",
	VendorApple:     "APPLE",
}

func (v Vendor) String() string {
	if s, ok := vendorNames[v]; ok {
		return s
	}
	return fmt.Sprintf("0x%02x", uint8(v))
}

// VendorOf returns the vendor namespace of mod.
func VendorOf(mod uint64) Vendor {
	return Vendor(mod >> vendorShift)
}

// Code builds a modifier from a vendor and its 56-bit private value,
// like fourcc_mod_code in drm_fourcc.h.
func Code(v Vendor, val uint64) uint64 {
	return uint64(v)<<vendorShift | val&(1<<vendorShift-1)
}
