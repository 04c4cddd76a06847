package internaldefs

import (
	goAdmin "github.com/MrEthical07/goAdmin"
)

// CounterDef names one goAdmin counter for export.
type CounterDef struct {
	ID   goAdmin.MetricID
	Name string
	Help string
}

// HistogramDef names one goAdmin histogram for export.
type HistogramDef struct {
	ID   goAdmin.MetricID
	Name string
	Help string
}

// AuditDroppedName is exported next to the engine counters.
const AuditDroppedName = "goadmin_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Audit events dropped because the sink was full."

var CounterDefs = []CounterDef{
	{ID: goAdmin.MetricLoginSuccess, Name: "goadmin_login_success_total", Help: "Successful logins."},
	{ID: goAdmin.MetricLoginFailure, Name: "goadmin_login_failure_total", Help: "Failed logins."},
	{ID: goAdmin.MetricLogout, Name: "goadmin_logout_total", Help: "Logouts."},
	{ID: goAdmin.MetricLogoutRemoteFailure, Name: "goadmin_logout_remote_failure_total", Help: "Logouts whose backend call failed."},
	{ID: goAdmin.MetricRefreshSuccess, Name: "goadmin_refresh_success_total", Help: "Successful token refreshes."},
	{ID: goAdmin.MetricRefreshFailure, Name: "goadmin_refresh_failure_total", Help: "Failed token refreshes."},
	{ID: goAdmin.MetricRefreshCoalesced, Name: "goadmin_refresh_coalesced_total", Help: "Refresh callers that joined an in-flight refresh."},
	{ID: goAdmin.MetricRefreshProactive, Name: "goadmin_refresh_proactive_total", Help: "Refreshes started before the access token expired."},
	{ID: goAdmin.MetricProfileFetchSuccess, Name: "goadmin_profile_fetch_success_total", Help: "Successful profile fetches."},
	{ID: goAdmin.MetricProfileFetchFailure, Name: "goadmin_profile_fetch_failure_total", Help: "Failed profile fetches."},
	{ID: goAdmin.MetricProfileRetry, Name: "goadmin_profile_retry_total", Help: "Profile fetches retried after a refresh."},
	{ID: goAdmin.MetricAuthExpired, Name: "goadmin_auth_expired_total", Help: "Sessions ended because authentication expired."},
	{ID: goAdmin.MetricPasswordChangeSuccess, Name: "goadmin_password_change_success_total", Help: "Successful password changes."},
	{ID: goAdmin.MetricPasswordChangeFailure, Name: "goadmin_password_change_failure_total", Help: "Failed password changes."},
	{ID: goAdmin.MetricStoreFailure, Name: "goadmin_store_failure_total", Help: "Credential store read or write failures."},
	{ID: goAdmin.MetricRequestEnvelopeSuccess, Name: "goadmin_request_envelope_success_total", Help: "Requests answered with a success envelope."},
	{ID: goAdmin.MetricRequestRawSuccess, Name: "goadmin_request_raw_success_total", Help: "Successful requests without an envelope."},
	{ID: goAdmin.MetricRequestApplicationError, Name: "goadmin_request_application_error_total", Help: "Requests rejected by the backend."},
	{ID: goAdmin.MetricRequestTransportError, Name: "goadmin_request_transport_error_total", Help: "Requests that got no usable response."},
	{ID: goAdmin.MetricNavigationAllowed, Name: "goadmin_navigation_allowed_total", Help: "Navigations allowed by the route guard."},
	{ID: goAdmin.MetricNavigationRedirected, Name: "goadmin_navigation_redirected_total", Help: "Navigations redirected by the route guard."},
	{ID: goAdmin.MetricNavigationDenied, Name: "goadmin_navigation_denied_total", Help: "Navigations denied by the route guard."},
}

var HistogramDefs = []HistogramDef{
	{ID: goAdmin.MetricRequestLatency, Name: "goadmin_request_latency_seconds", Help: "Backend request latency."},
}

// HistogramBounds must stay aligned with the bucket layout in goAdmin.Metrics.
var HistogramBounds = []string{
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"2.5",
	"5",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds in a form usable inside
// instrument names.
var HistogramBoundSuffix = []string{
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"2_5",
	"5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling short input.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
