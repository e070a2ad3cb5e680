package domain

// Identification is the partition key for a buyer: either a registered member
// id or an externally issued anonymous code, never both. Every ledger lookup
// and mutation is scoped by it.
type Identification struct {
	MemberID     string
	ExternalCode string
}

// MemberIdentification returns an Identification for a registered member.
func MemberIdentification(memberID string) Identification {
	return Identification{MemberID: memberID}
}

// AnonymousIdentification returns an Identification for an anonymous buyer.
func AnonymousIdentification(code string) Identification {
	return Identification{ExternalCode: code}
}

// Valid reports whether exactly one of the two identifiers is set.
func (id Identification) Valid() bool {
	return (id.MemberID != "") != (id.ExternalCode != "")
}

// Anonymous reports whether the buyer is identified by an external code.
func (id Identification) Anonymous() bool {
	return id.ExternalCode != ""
}
