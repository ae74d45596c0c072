package api

import (
	"net/http"
	"net/mail"
	"strings"
	"time"

	"zakfit/api/internal/apperr"
	"zakfit/api/internal/auth"
	"zakfit/api/internal/models"
)

// ── Users ─────────────────────────────────────────────────────────────────────

const minPasswordLen = 8

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func validPassword(pw string) error {
	if len(pw) < minPasswordLen {
		return apperr.BadRequest("Password must be at least %d characters", minPasswordLen)
	}
	if len(pw) > auth.MaxPasswordBytes {
		return apperr.BadRequest("Password must be at most %d bytes", auth.MaxPasswordBytes)
	}
	return nil
}

func (a *App) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		a.writeError(w, r, apperr.BadRequest("firstName, lastName, email and password are required"))
		return
	}
	if !validEmail(req.Email) {
		a.writeError(w, r, apperr.BadRequest("Invalid email address"))
		return
	}
	if err := validPassword(req.Password); err != nil {
		a.writeError(w, r, err)
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		a.writeError(w, r, apperr.Internal("hash password", err))
		return
	}
	u, err := a.Store.CreateUser(r.Context(), models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 201, a.localUser(u))
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

func (a *App) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	u, err := a.Store.UserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if apperr.Is(err, apperr.KindNotFound) {
		a.writeError(w, r, apperr.Unauthorized("User does not exist"))
		return
	}
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	ok, err := auth.CheckPassword(u.PasswordHash, req.Password)
	if err != nil {
		a.writeError(w, r, apperr.Internal("check password", err))
		return
	}
	if !ok {
		a.writeError(w, r, apperr.Unauthorized("Incorrect password"))
		return
	}
	token, exp, err := a.Tokens.Issue(u.ID)
	if err != nil {
		a.writeError(w, r, apperr.Internal("issue token", err))
		return
	}
	writeJSON(w, 200, LoginResponse{Token: token, ExpiresAt: a.local(exp), User: a.localUser(u)})
}

func (a *App) localUser(u models.User) models.User {
	u.CreatedAt = a.local(u.CreatedAt)
	return u
}

func (a *App) HandleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := a.Store.UserByID(r.Context(), currentUser(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, a.localUser(u))
}

func (a *App) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	u, err := a.Store.UserByID(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, a.localUser(u))
}

// updateCurrentUser loads the caller, lets apply change it and writes it back.
func (a *App) updateCurrentUser(w http.ResponseWriter, r *http.Request, apply func(u *models.User) error) {
	ctx := r.Context()
	u, err := a.Store.UserByID(ctx, currentUser(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := apply(&u); err != nil {
		a.writeError(w, r, err)
		return
	}
	updated, err := a.Store.UpdateUser(ctx, u)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, 200, a.localUser(updated))
}

type UpdateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
}

func (a *App) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.updateCurrentUser(w, r, func(u *models.User) error {
		if req.FirstName != nil {
			if strings.TrimSpace(*req.FirstName) == "" {
				return apperr.BadRequest("First name cannot be empty")
			}
			u.FirstName = strings.TrimSpace(*req.FirstName)
		}
		if req.LastName != nil {
			if strings.TrimSpace(*req.LastName) == "" {
				return apperr.BadRequest("Last name cannot be empty")
			}
			u.LastName = strings.TrimSpace(*req.LastName)
		}
		if req.Email != nil {
			email := strings.TrimSpace(*req.Email)
			if !validEmail(email) {
				return apperr.BadRequest("Invalid email address")
			}
			u.Email = email
		}
		if req.Password != nil {
			if err := validPassword(*req.Password); err != nil {
				return err
			}
			hash, err := auth.HashPassword(*req.Password)
			if err != nil {
				return apperr.Internal("hash password", err)
			}
			u.PasswordHash = hash
		}
		return nil
	})
}

type UpdatePersonalRequest struct {
	YearOfBirth         *int    `json:"yearOfBirth"`
	Size                *int    `json:"size"`
	Weight              *int    `json:"weight"`
	Gender              *string `json:"gender"`
	FrequencyOfActivity *int    `json:"frequencyOfActivity"`
}

func (a *App) HandleUpdatePersonal(w http.ResponseWriter, r *http.Request) {
	var req UpdatePersonalRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	err := firstErr(
		nonNegative("Year of birth", req.YearOfBirth),
		nonNegative("Size", req.Size),
		nonNegative("Weight", req.Weight),
		nonNegative("Frequency of activity", req.FrequencyOfActivity),
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.Gender != nil && !models.IsOneOf(*req.Gender, models.Genders) {
		a.writeError(w, r, apperr.BadRequest("Invalid gender"))
		return
	}
	a.updateCurrentUser(w, r, func(u *models.User) error {
		if req.YearOfBirth != nil {
			u.YearOfBirth = req.YearOfBirth
		}
		if req.Size != nil {
			u.Size = req.Size
		}
		if req.Weight != nil {
			u.Weight = req.Weight
		}
		if req.Gender != nil {
			u.Gender = req.Gender
		}
		if req.FrequencyOfActivity != nil {
			u.FrequencyOfActivity = req.FrequencyOfActivity
		}
		return nil
	})
}

type UpdatePreferencesRequest struct {
	PreferredFoodType string `json:"preferredFoodType"`
}

func (a *App) HandleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req UpdatePreferencesRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if !models.IsOneOf(req.PreferredFoodType, models.DietPreferences) {
		a.writeError(w, r, apperr.BadRequest("Invalid food preference"))
		return
	}
	a.updateCurrentUser(w, r, func(u *models.User) error {
		u.PreferredFoodType = &req.PreferredFoodType
		return nil
	})
}

type UpdateBMRRequest struct {
	BMR                 *float64 `json:"bmr"`
	TypeOfDailyActivity *string  `json:"typeOfDailyActivity"`
	CalorieDaily        *float64 `json:"calorieDaily"`
	ProteinDaily        *float64 `json:"proteinDaily"`
	LipidDaily          *float64 `json:"lipidDaily"`
	CarbohydrateDaily   *float64 `json:"carbohydrateDaily"`
	ObjectivePersonal   *string  `json:"objectivePersonal"`
}

func (a *App) HandleUpdateBMR(w http.ResponseWriter, r *http.Request) {
	var req UpdateBMRRequest
	if err := decode(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	err := firstErr(
		nonNegativeFloat("BMR", req.BMR),
		nonNegativeFloat("Daily calories", req.CalorieDaily),
		nonNegativeFloat("Daily proteins", req.ProteinDaily),
		nonNegativeFloat("Daily lipids", req.LipidDaily),
		nonNegativeFloat("Daily carbohydrates", req.CarbohydrateDaily),
	)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.TypeOfDailyActivity != nil && !models.IsOneOf(*req.TypeOfDailyActivity, models.DailyActivityLevels) {
		a.writeError(w, r, apperr.BadRequest("Invalid daily activity type"))
		return
	}
	if req.ObjectivePersonal != nil && !models.IsOneOf(*req.ObjectivePersonal, models.PersonalObjectives) {
		a.writeError(w, r, apperr.BadRequest("Invalid personal objective"))
		return
	}
	a.updateCurrentUser(w, r, func(u *models.User) error {
		if req.BMR != nil {
			u.BMR = req.BMR
		}
		if req.TypeOfDailyActivity != nil {
			u.TypeOfDailyActivity = req.TypeOfDailyActivity
		}
		if req.CalorieDaily != nil {
			u.CalorieDaily = req.CalorieDaily
		}
		if req.ProteinDaily != nil {
			u.ProteinDaily = req.ProteinDaily
		}
		if req.LipidDaily != nil {
			u.LipidDaily = req.LipidDaily
		}
		if req.CarbohydrateDaily != nil {
			u.CarbohydrateDaily = req.CarbohydrateDaily
		}
		if req.ObjectivePersonal != nil {
			u.ObjectivePersonal = req.ObjectivePersonal
		}
		return nil
	})
}
