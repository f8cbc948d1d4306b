package state

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Checksum computes a SHA-256 over a canonical rendering of a session.
// Generated ids are replaced by their creation ordinal so that two sessions
// driven through the same steps with the same random source hash equal.
func (s *Store) Checksum(sessionID string) (string, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := sess.writeCanonical(&buf); err != nil {
		return "", err
	}

	hash := sha256.New()
	if _, err := hash.Write(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to compute hash: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func (sess *session) writeCanonical(buf *bytes.Buffer) error {
	pairs := make([]string, 0, 2*(len(sess.entities)+len(sess.components)))
	componentSeq := 0
	for i, entityID := range sess.order {
		pairs = append(pairs, entityID, fmt.Sprintf("E%d", i))
		ent, err := sess.snapshot(entityID)
		if err != nil {
			return err
		}
		for _, t := range ent.Types() {
			for _, c := range ent.Components(t) {
				pairs = append(pairs, c.ID, fmt.Sprintf("C%d", componentSeq))
				componentSeq++
			}
		}
	}
	replacer := strings.NewReplacer(pairs...)

	for i, entityID := range sess.order {
		fmt.Fprintf(buf, "ENTITY:E%d\n", i)
		ent, err := sess.snapshot(entityID)
		if err != nil {
			return err
		}
		for _, t := range ent.Types() {
			for _, c := range ent.Components(t) {
				fmt.Fprintf(buf, "  %s:%s\n", replacer.Replace(c.ID), replacer.Replace(describe(c.Data)))
			}
		}
	}
	return nil
}

func describe(d Data) string {
	switch v := d.(type) {
	case CombatStatus:
		pending := "none"
		if v.PendingEnemyAttack != nil {
			pending = v.PendingEnemyAttack.String()
		}
		return fmt.Sprintf("%s{Phase:%s Pending:%s Turn:%d}", v.Type(), v.Phase, pending, v.Turn)
	default:
		return fmt.Sprintf("%s%+v", d.Type(), d)
	}
}
