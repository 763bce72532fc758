package util

func GetAppName() string {
	return "Inkwell"
}

// Canonical signing page on the frontend; the token is the sole capability
// the page needs.
func GetSigningURL(frontendURL, token string) string {
	return frontendURL + "/signing/" + token
}

// Public verification page encoded into the QR on finalized documents.
func GetVerifyURL(frontendURL, contractId string) string {
	return frontendURL + "/verify/" + contractId
}
