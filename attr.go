package ble

// GATT declaration UUIDs from the BLE spec.
var (
	attrPrimaryServiceUUID   = UUID16(0x2800)
	attrSecondaryServiceUUID = UUID16(0x2801)
	attrIncludeUUID          = UUID16(0x2802)
	attrCharacteristicUUID   = UUID16(0x2803)

	attrClientCharacteristicConfigUUID = UUID16(0x2902)
)

// Characteristic property flags.
// Do not re-order; they are organized to match the BLE spec.
type Props byte

const (
	PropBroadcast Props = 1 << iota
	PropRead
	PropWriteNR
	PropWrite
	PropNotify
	PropIndicate
)

// Attribute permission bits.
type Perm byte

const (
	PermNone         Perm = 0
	PermRead         Perm = 1 << 0
	PermWrite        Perm = 1 << 1
	PermReadEncrypt  Perm = 1 << 2
	PermWriteEncrypt Perm = 1 << 3
)

// An Attribute is one row of the GATT attribute table. It references
// its UUID and user data rather than owning them: whoever builds the
// table must keep both alive for as long as the table is registered.
//
// A zero Handle asks the host to assign one at registration time, in
// declaration order.
type Attribute struct {
	UUID   UUID
	Read   ReadHandler
	Write  WriteHandler
	Value  any
	Handle uint16
	Perm   Perm
}

// A CharacteristicDecl is the user data of a characteristic
// declaration attribute. The host fills ValueHandle when it assigns
// handles.
type CharacteristicDecl struct {
	UUID        UUID
	Properties  Props
	ValueHandle uint16
}

// A Service is an ordered, immutable-after-construction sequence of
// attributes: [service declaration, characteristic declaration,
// characteristic value, descriptors...]. Order is significant: the
// host assigns ascending handles by table position, and a
// characteristic declaration must immediately precede its value
// attribute.
//
// Once registered, the host holds a reference to the Service
// indefinitely; the application must not mutate or drop it.
type Service struct {
	attrs      []*Attribute
	registered bool
}

// NewService captures attrs in declaration order. No validation is
// performed beyond keeping the order.
func NewService(attrs ...*Attribute) *Service {
	return &Service{attrs: attrs}
}

// Attributes returns the service's attribute table in declaration
// order.
func (s *Service) Attributes() []*Attribute {
	return s.attrs
}

// UUID returns the service's own UUID, taken from its leading service
// declaration. It returns the zero UUID if the first attribute is not
// a service declaration.
func (s *Service) UUID() UUID {
	if len(s.attrs) == 0 {
		return UUID{}
	}
	if u, ok := s.attrs[0].Value.(UUID); ok {
		return u
	}
	return UUID{}
}

// PrimaryService returns a primary service declaration attribute for
// the service UUID u. The declaration is readable by anyone; its value
// is marshalled by the host's built-in service read.
func PrimaryService(u UUID) *Attribute {
	return &Attribute{
		UUID:  attrPrimaryServiceUUID,
		Read:  NativeReadFunc(readServiceAttr),
		Value: u,
		Perm:  PermRead,
	}
}

// SecondaryService is PrimaryService for a secondary service
// declaration.
func SecondaryService(u UUID) *Attribute {
	return &Attribute{
		UUID:  attrSecondaryServiceUUID,
		Read:  NativeReadFunc(readServiceAttr),
		Value: u,
		Perm:  PermRead,
	}
}

// Characteristic returns the attribute pair for one characteristic:
// the declaration attribute followed by the value attribute. The
// declaration's user data is a CharacteristicDecl referencing u, so
// the returned pair must stay alive together.
func Characteristic(u UUID, props Props, perm Perm, read ReadHandler, write WriteHandler, value any) []*Attribute {
	decl := &Attribute{
		UUID: attrCharacteristicUUID,
		Read: NativeReadFunc(readChrcAttr),
		Value: &CharacteristicDecl{
			UUID:       u,
			Properties: props,
		},
		Perm: PermRead,
	}
	val := &Attribute{
		UUID:  u,
		Read:  read,
		Write: write,
		Value: value,
		Perm:  perm,
	}
	return []*Attribute{decl, val}
}

// Descriptor returns a descriptor attribute for the preceding
// characteristic value.
func Descriptor(u UUID, perm Perm, read ReadHandler, write WriteHandler, value any) *Attribute {
	return &Attribute{
		UUID:  u,
		Read:  read,
		Write: write,
		Value: value,
		Perm:  perm,
	}
}

// CCCDescriptor returns a client characteristic configuration
// descriptor attribute backed by the given handlers.
func CCCDescriptor(read ReadHandler, write WriteHandler, value any) *Attribute {
	return Descriptor(attrClientCharacteristicConfigUUID, PermRead|PermWrite, read, write, value)
}
