package notify

// Destination names a chat stream and topic.
type Destination struct {
	Stream string
	Topic  string
}

// squadStreams binds each squad to its alert channel. Configuration data,
// not runtime state.
var squadStreams = map[string]Destination{
	"Dashboard Squad":         {Stream: "Dashboard Squad", Topic: "Orphaned PR's"},
	"Database Squad":          {Stream: "Database Squad", Topic: "Doc alerts"},
	"Big Data and AI Squad":   {Stream: "bigdata & ai", Topic: "helpcenter_alerts"},
	"Compute Squad":           {Stream: "compute", Topic: "hc_alerts topic"},
	"Security Services Squad": {Stream: "security services", Topic: "Doc Alerts"},
	"CMS Squad":               {Stream: "CMS Squad", Topic: "Doc alerts"},
	"PAAS Squad":              {Stream: "PaaS Squad", Topic: "Doc alerts"},
	"Storage Squad":           {Stream: "Storage Squad", Topic: "helpcenter_alerts"},
	"Container Squad":         {Stream: "Container squad", Topic: "Doc alerts"},
	"Network Squad":           {Stream: "network", Topic: "Alerts_HelpCenter"},
}

// Ecosystem is the fixed fallback destination for rows that have no squad
// routing, e.g. PRs without structured-doc changes.
var Ecosystem = Destination{Stream: "ecosystem", Topic: "Eyes-on-Docs alerts"}

// Squads lists every squad with a bound destination, in a stable order.
func Squads() []string {
	return []string{
		"Dashboard Squad",
		"Database Squad",
		"Big Data and AI Squad",
		"Compute Squad",
		"Security Services Squad",
		"CMS Squad",
		"PAAS Squad",
		"Storage Squad",
		"Container Squad",
		"Network Squad",
	}
}

// DestinationFor returns the channel bound to a squad.
func DestinationFor(squad string) (Destination, bool) {
	d, ok := squadStreams[squad]
	return d, ok
}
