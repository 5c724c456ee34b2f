package media

import (
	"fmt"

	"go.uber.org/zap"

	"voiceptt/internal/domain"
	"voiceptt/internal/ports"
)

// DefaultCandidates is the recording preference order.
var DefaultCandidates = []domain.EncodingDescriptor{
	{MIMEType: "audio/webm;codecs=opus", Container: domain.ContainerWebM, Codec: "opus"},
	{MIMEType: "audio/webm", Container: domain.ContainerWebM},
	{MIMEType: "audio/ogg;codecs=opus", Container: domain.ContainerOgg, Codec: "opus"},
	{MIMEType: "audio/ogg", Container: domain.ContainerOgg},
}

// Negotiator picks the first recordable encoding from a candidate list.
type Negotiator struct {
	probe      ports.EncoderProbe
	candidates []domain.EncodingDescriptor
	logger     *zap.Logger
}

// NewNegotiator uses DefaultCandidates when candidates is nil. A non-nil
// empty list is kept as given and never yields an encoding.
func NewNegotiator(probe ports.EncoderProbe, candidates []domain.EncodingDescriptor, logger *zap.Logger) *Negotiator {
	if candidates == nil {
		candidates = DefaultCandidates
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Negotiator{probe: probe, candidates: candidates, logger: logger}
}

// PickEncoding returns the first supported candidate, or false when none is.
func (n *Negotiator) PickEncoding() (domain.EncodingDescriptor, bool) {
	if n.probe == nil {
		return domain.EncodingDescriptor{}, false
	}
	for _, candidate := range n.candidates {
		supported, err := n.query(candidate)
		if err != nil {
			n.logger.Debug("encoding probe failed", zap.String("mime", candidate.MIMEType), zap.Error(err))
			continue
		}
		if supported {
			return candidate, true
		}
	}
	return domain.EncodingDescriptor{}, false
}

func (n *Negotiator) query(candidate domain.EncodingDescriptor) (supported bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			supported = false
			err = fmt.Errorf("probe panicked: %v", r)
		}
	}()
	return n.probe.IsTypeSupported(candidate)
}
