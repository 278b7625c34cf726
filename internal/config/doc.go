// Package config loads kavita's TOML configuration.
//
// # Configuration Discovery
//
// Load resolves the file in this order:
//
//  1. An explicitly provided path
//  2. ~/.config/kavita/config.toml
//  3. Built-in defaults when the file does not exist
//
// Blank or non-positive values fall back to defaults, so a partial file is
// always valid. Tilde paths are expanded and relative paths made absolute.
//
// # TOML Format
//
//	server_url = "127.0.0.1:8787"
//	session_path = "~/.local/state/kavita/session.toml"
//	keep_session = false
//	flashcard_seconds = 7
//	audio_output = "pulse"   # pulse, alsa or none
//	theme = "Nightfox"
//
//	[server]
//	listen = "127.0.0.1:8787"
//	results_driver = "file"  # file or sqlite3
//	results_path = "~/.local/share/kavita/results.json"
//	tts_per_minute = 30
//
// The ElevenLabs key is never read from the file. Set ELEVENLABS_API_KEY in
// the server's environment; ELEVENLABS_VOICE_ID and ELEVENLABS_MODEL_ID
// override the matching [server] keys.
//
// # Error Handling
//
// Missing files are not an error. Unreadable files and TOML syntax errors
// are returned wrapped with "open config", "read config" or "parse config".
package config
