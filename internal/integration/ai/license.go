package ai

import "github.com/unidoc/unipdf/v3/common/license"

// SetPDFLicense unipdf 计量许可，空 key 时跳过
func SetPDFLicense(key string) error {
	if key == "" {
		return nil
	}
	return license.SetMeteredKey(key)
}
