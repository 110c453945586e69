// Package cfgx materializes resolved configuration into plain structs.
//
// Build takes the *resolved.Map an extraction produced, projects it onto
// map[string]any and decodes it with mapstructure, matching keys to fields
// through the "config" struct tag. Values arrive already parsed, so the
// decode hooks only bridge representation gaps:
//   - OptionalHook scans values into optional.Value[T] fields and unwraps
//     optional values headed for plain fields.
//   - DurationHook and TextUnmarshalerHook cover plain maps whose leaves
//     are still strings.
//
// Option catalog:
//   - Defaults: WithDefaults, WithDefaultFunc.
//   - Decoder behavior: WithDecoder, WithDecodeHooks, WithoutDefaultHooks,
//     WithStrictKeys, WithWeakTyping, WithTagName.
//   - Validation: WithValidator, WithValidatorFunc, WithSelfValidation.
//   - Diagnostics: WithOptionError.
package cfgx
