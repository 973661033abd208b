package message

// schemaBase is the TAP message-type URL prefix; each body type's
// MessageType() is schemaBase + its name.
const schemaBase = "https://tap.rsvp/schema/1.0#"
