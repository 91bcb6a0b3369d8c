package registry

const UNKNOWN_STATUS_LABEL = "Unknown"

var statusLabels = []string{
	"Manufactured",
	"In Transit to Distributor",
	"With Distributor",
	"In Transit to Retailer",
	"With Retailer",
	"In Transit to Customer",
	"Delivered",
}

// StatusLabel never fails, anything outside the seven stages is Unknown
func StatusLabel(status int64) string {
	if status < 0 || status >= int64(len(statusLabels)) {
		return UNKNOWN_STATUS_LABEL
	}
	return statusLabels[status]
}

func StatusLabels() []string {
	labels := make([]string, len(statusLabels))
	copy(labels, statusLabels)
	return labels
}
