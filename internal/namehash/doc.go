// Package namehash derives the identifiers the projector writes.
//
// Every identifier is a pure function of event fields and the configured
// root node:
//
//   - label:           32-byte big-endian encoding of an ERC-721 token id
//   - registration id: hex(label)
//   - domain id:       hex(keccak256(root || label))
//   - account id:      lowercase 0x-prefixed address
//
// NameHash implements EIP-137 for full dotted names, so the domain id of
// a label under the default root equals NameHash(label + ".nom").
package namehash
