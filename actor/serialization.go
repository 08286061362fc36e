package actor

import "reflect"

// Serializer encodes/decodes one payload type to/from bytes under a
// manifest string (a version/schema tag the decoding side checks).
type Serializer interface {
	Manifest() string
	Encode(payload any) ([]byte, error)
	Decode(manifest string, data []byte) (any, error)
}

// SerializationExtensionID is the key RegisterExtension/Extension use for
// the serialization extension, so callers needing it look it up instead of
// the core offering a free-standing constructor (SPEC_FULL.md's Open
// Question Decision 1: only the extension-mediated path is surfaced).
const SerializationExtensionID = "serialization"

// SerializationExtension is the registry a transport/persistence
// collaborator installs via an ExtensionInstaller: it maps a payload's
// reflect.Type to the Serializer responsible for it.
type SerializationExtension struct {
	byType map[reflect.Type]Serializer
}

// NewSerializationExtension returns an empty registry; install it with
// RegisterExtension(SerializationExtensionID, ext) from an
// ActorSystemConfig.ExtensionInstallers entry.
func NewSerializationExtension() *SerializationExtension {
	return &SerializationExtension{byType: make(map[reflect.Type]Serializer)}
}

// Register binds typ to serializer.
func (e *SerializationExtension) Register(typ reflect.Type, serializer Serializer) {
	e.byType[typ] = serializer
}

// Encode looks up payload's serializer by its dynamic type and encodes it.
// On a missing serializer it returns a *SerializationError of kind
// SerializationNoSerializer rather than panicking; the caller is expected
// to publish a SerializationErrorEvent and deadletter the message, per
// spec.md §7.
func (e *SerializationExtension) Encode(payload any) (manifest string, data []byte, err error) {
	typ := reflect.TypeOf(payload)
	serializer, ok := e.byType[typ]
	if !ok {
		return "", nil, &SerializationError{Kind: SerializationNoSerializer, Type: typ.String()}
	}
	data, err = serializer.Encode(payload)
	if err != nil {
		return "", nil, &SerializationError{Kind: SerializationCodecFailure, Type: typ.String()}
	}
	return serializer.Manifest(), data, nil
}

// Decode decodes data with the serializer registered for typ, checking the
// manifest matches what that serializer currently produces.
func (e *SerializationExtension) Decode(typ reflect.Type, manifest string, data []byte) (any, error) {
	serializer, ok := e.byType[typ]
	if !ok {
		return nil, &SerializationError{Kind: SerializationNoSerializer, Type: typ.String()}
	}
	if serializer.Manifest() != manifest {
		return nil, &SerializationError{Kind: SerializationManifestMismatch, Type: typ.String()}
	}
	payload, err := serializer.Decode(manifest, data)
	if err != nil {
		return nil, &SerializationError{Kind: SerializationCodecFailure, Type: typ.String()}
	}
	return payload, nil
}
