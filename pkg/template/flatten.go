package template

// Trigger payloads arrive in wildly different shapes depending on the event
// source: call data nested under callData, AI-extracted fields wrapped in
// {value: ...} envelopes under structured_data, appointment details at either
// level. Flatten projects all of that into a single-level map so condition
// evaluation and interpolation have one canonical view.
//
// Flatten never fails: malformed or missing nested fields degrade to empty
// strings. The result is recomputed whenever the context may have been
// mutated; it is a projection, not a cache.
func Flatten(context map[string]any) map[string]any {
	flat := make(map[string]any, len(context)+16)
	if context == nil {
		return flat
	}

	for k, v := range context {
		flat[k] = v
	}

	// structured_data entries win over the plain spread above.
	mergeStructuredData(flat, context["structured_data"])

	callData := mapAt(context, "callData")
	if callData != nil {
		for k, v := range callData {
			flat[k] = v
		}

		mergeStructuredData(flat, callData["structured_data"])

		if appt := mapAt(callData, "appointment"); appt != nil {
			writeAppointment(flat, appt, false)
		}
	}

	// A top-level appointment fills gaps but never clobbers fields already
	// populated from callData, independently per field.
	if appt := mapAt(context, "appointment"); appt != nil {
		writeAppointment(flat, appt, true)
	}

	applyAliases(flat, context, callData)

	return flat
}

func mergeStructuredData(flat map[string]any, sd any) {
	m, ok := sd.(map[string]any)
	if !ok {
		return
	}

	for k, v := range m {
		flat[k] = unwrapValue(v)
	}
}

var appointmentFields = []string{"status", "start_time", "end_time", "timezone", "calendar", "booking_link"}

var appointmentContactFields = []string{"name", "email", "phone"}

func writeAppointment(flat map[string]any, appt map[string]any, fillOnly bool) {
	write := func(key string, v any) {
		if fillOnly {
			setIfEmpty(flat, key, v)

			return
		}

		flat[key] = v
	}

	for _, field := range appointmentFields {
		write("appointment_"+field, Stringify(appt[field]))
	}

	contact := mapAt(appt, "contact")
	for _, field := range appointmentContactFields {
		var v any
		if contact != nil {
			v = contact[field]
		}

		write("appointment_contact_"+field, Stringify(v))
	}
}

// applyAliases derives the convenience keys templates actually use. Each
// chain fills only when the target is still empty; earlier sources win.
func applyAliases(flat, context, callData map[string]any) {
	sd := mapAt(context, "structured_data")

	var callSD map[string]any
	if callData != nil {
		callSD = mapAt(callData, "structured_data")
	}

	setIfEmpty(flat, "name", firstNonEmpty(
		flat["appointment_contact_name"],
		flat["Customer Name"],
		flat["booking_name"],
		structuredField(sd, "name"),
		structuredField(sd, "Customer Name"),
		structuredField(callSD, "name"),
		structuredField(callSD, "Customer Name"),
	))

	setIfEmpty(flat, "email", firstNonEmpty(
		flat["appointment_contact_email"],
		structuredField(sd, "email"),
		structuredField(callSD, "email"),
	))

	setIfEmpty(flat, "phone", firstNonEmpty(
		flat["appointment_contact_phone"],
		structuredField(sd, "phone"),
		structuredField(callSD, "phone"),
	))

	setIfEmpty(flat, "phone_number", flat["phone"])
	setIfEmpty(flat, "booking_status", flat["appointment_status"])
}

func structuredField(sd map[string]any, key string) any {
	if sd == nil {
		return nil
	}

	v, ok := sd[key]
	if !ok {
		return nil
	}

	return unwrapValue(v)
}

func setIfEmpty(flat map[string]any, key string, v any) {
	if isEmpty(v) {
		return
	}

	if isEmpty(flat[key]) {
		flat[key] = v
	}
}

func firstNonEmpty(values ...any) any {
	for _, v := range values {
		if !isEmpty(v) {
			return v
		}
	}

	return nil
}
