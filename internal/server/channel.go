package server

import (
	"regexp"
	"strconv"
	"strings"
)

// RefKind classifies how a channel reference names its channel.
type RefKind int

const (
	// RefUsername is a public @name or t.me/name reference.
	RefUsername RefKind = iota
	// RefID is a numeric channel id.
	RefID
	// RefInvite is a t.me/+HASH invite link.
	RefInvite
)

// ChannelRef is a parsed channel reference.
type ChannelRef struct {
	Kind     RefKind
	Username string
	ID       int64
	Invite   string
	Original string
}

var (
	inviteRe   = regexp.MustCompile(`t\.me/\+([a-zA-Z0-9_-]+)`)
	linkIDRe   = regexp.MustCompile(`t\.me/c/(\d+)`)
	linkNameRe = regexp.MustCompile(`t\.me/([a-zA-Z0-9_]+)`)
)

// ParseChannelRef parses user channel input. Accepted forms:
// @name, t.me/name, t.me/c/ID links, t.me/+HASH invite links, a bare
// numeric id (with or without the -100 supergroup prefix), or a bare
// username.
func ParseChannelRef(input string) ChannelRef {
	input = strings.TrimSpace(input)
	ref := ChannelRef{Original: input}

	if m := inviteRe.FindStringSubmatch(input); m != nil {
		ref.Kind = RefInvite
		ref.Invite = m[1]
		return ref
	}

	if id, err := strconv.ParseInt(input, 10, 64); err == nil {
		ref.Kind = RefID
		ref.ID = id
		return ref
	}

	if m := linkIDRe.FindStringSubmatch(input); m != nil {
		id, _ := strconv.ParseInt(m[1], 10, 64)
		ref.Kind = RefID
		ref.ID = id
		return ref
	}

	if m := linkNameRe.FindStringSubmatch(input); m != nil {
		ref.Kind = RefUsername
		ref.Username = m[1]
		return ref
	}

	ref.Kind = RefUsername
	ref.Username = strings.TrimPrefix(input, "@")
	return ref
}

// BareID strips the -100 supergroup prefix so ids always compare in
// their bare positive form.
func (r ChannelRef) BareID() int64 {
	id := r.ID
	if id < 0 {
		id = -id
		if id > 1000000000000 {
			id -= 1000000000000
		}
	}
	return id
}
