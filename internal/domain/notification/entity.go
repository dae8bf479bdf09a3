// internal/domain/notification/entity.go
package notification

type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// AttemptResult is the outcome of one delivery attempt to one recipient.
// It is never persisted.
type AttemptResult struct {
	Channel     Channel
	RecipientID string
	Success     bool
	Err         error
}

// ChannelReport aggregates attempts on a single channel.
type ChannelReport struct {
	Sent   int      `json:"sent"`
	Errors []string `json:"errors"`
}

// Report is the per-channel breakdown returned alongside a broadcast.
type Report struct {
	Push  ChannelReport `json:"push"`
	Email ChannelReport `json:"email"`
	SMS   ChannelReport `json:"sms"`
}

// NewReport returns a report with non-nil error slices so it encodes as [].
func NewReport() *Report {
	return &Report{
		Push:  ChannelReport{Errors: []string{}},
		Email: ChannelReport{Errors: []string{}},
		SMS:   ChannelReport{Errors: []string{}},
	}
}

// Record folds one attempt into the report.
func (r *Report) Record(res AttemptResult) {
	cr := r.channel(res.Channel)
	if cr == nil {
		return
	}
	if res.Success {
		cr.Sent++
		return
	}
	if res.Err != nil {
		cr.Errors = append(cr.Errors, res.Err.Error())
	}
}

// Total is the number of successful deliveries across all channels.
func (r *Report) Total() int {
	return r.Push.Sent + r.Email.Sent + r.SMS.Sent
}

func (r *Report) channel(c Channel) *ChannelReport {
	switch c {
	case ChannelPush:
		return &r.Push
	case ChannelEmail:
		return &r.Email
	case ChannelSMS:
		return &r.SMS
	}
	return nil
}

// EmailOnly is the report shape used by evacuation center broadcasts.
type EmailOnly struct {
	Email ChannelReport `json:"email"`
}
