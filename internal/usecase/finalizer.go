package usecase

import "voiceptt/internal/domain"

// finalizeRecording assembles the buffered chunks into the recording handed
// to the pipeline. An empty encoding means the platform default was used.
func finalizeRecording(buffer *chunkBuffer, enc domain.EncodingDescriptor) domain.Recording {
	mimeType := enc.MIMEType
	if mimeType == "" {
		mimeType = domain.DefaultMIMEType
	}
	container := enc.Container
	if container == "" {
		container = domain.ContainerWebM
	}
	return domain.Recording{
		Data:      buffer.Assemble(),
		MIMEType:  mimeType,
		Container: container,
	}
}
