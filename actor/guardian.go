package actor

// RootGuardianProps builds the Props for the top-level "/" guardian: a
// bare bookkeeping actor with no application behavior, matching how the
// teacher's Engine itself never "receives" anything — it only owns the
// process table.
func RootGuardianProps() Props {
	return PropsOf(func() Actor { return guardianActor{} })
}

// UserGuardianProps builds Props from an application-supplied producer so it can be
// installed as the "/user" guardian: the conventional root of all
// application-spawned actors (spec.md §4.9's "spawns /user with the
// user-supplied guardian props").
func UserGuardianProps(producer Producer) Props {
	return PropsOf(producer)
}
