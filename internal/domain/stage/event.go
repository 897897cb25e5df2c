package stage

type Event string

const (
	SendPortalInvite      Event = "sendPortalInvite"
	ClientRequestsStart   Event = "clientRequestsStart"
	CroaSigned            Event = "croaSigned"
	CaptureSucceeded      Event = "captureSucceeded"
	CaptureFailed         Event = "captureFailed"
	RetryPaymentSucceeded Event = "retryPaymentSucceeded"
	RetryExhausted        Event = "retryExhausted"
	ClientCancels         Event = "clientCancels"
	HoldExpired           Event = "holdExpired"
	StaffForceCancel      Event = "staffForceCancel"
)
